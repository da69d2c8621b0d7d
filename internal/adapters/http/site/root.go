// Package site serves the browser form used to request a timesheet.
package site

import (
	"context"
	"net/http"
)

const indexPage = "index.html"

// Register attaches the form routes to mux. POST /fill-timesheet is handed to
// generate.
func Register(_ context.Context, mux *http.ServeMux, generate http.Handler) {
	if mux == nil {
		panic("mux is nil")
	}
	h := NewRootHandler(generate)
	mux.HandleFunc("/", h.HandleRoot)
	mux.HandleFunc("/fill-timesheet", h.HandleFillTimesheet)
}

// RootHandler handles the form pages.
type RootHandler struct {
	generate http.Handler
}

// NewRootHandler creates a new root handler.
func NewRootHandler(generate http.Handler) *RootHandler {
	return &RootHandler{generate: generate}
}

// HandleRoot serves the form at exactly "/"; every other unmatched path is 404.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	h.serveForm(w, r)
}

// HandleFillTimesheet serves the form on GET and generates on POST.
func (h *RootHandler) HandleFillTimesheet(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.serveForm(w, r)
	case http.MethodPost:
		if h.generate == nil {
			http.NotFound(w, r)
			return
		}
		h.generate.ServeHTTP(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *RootHandler) serveForm(w http.ResponseWriter, r *http.Request) {
	f, err := FS().Open(indexPage)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, indexPage, info.ModTime(), f)
}
