package api

import (
	"context"
	"net/http"

	"github.com/okian/shiftsheet/internal/adapters/calendar"
)

// NamesDependencies lists people found in the calendar.
type NamesDependencies interface {
	Names(ctx context.Context) ([]string, calendar.Window, error)
}

// NamesHandler handles name listing requests.
type NamesHandler struct {
	deps NamesDependencies
}

// NewNamesHandler creates a new names handler.
func NewNamesHandler(deps NamesDependencies) *NamesHandler {
	return &NamesHandler{deps: deps}
}

type namesResponse struct {
	Names  []string        `json:"names"`
	Window calendar.Window `json:"window"`
}

// HandleGetNames handles GET /names requests.
func (h *NamesHandler) HandleGetNames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	names, window, err := h.deps.Names(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, namesResponse{Names: names, Window: window})
}
