package api

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	service "github.com/okian/shiftsheet/internal/app"
)

const (
	maxRequestBytes = 1 << 20
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// TimesheetDependencies generates timesheets.
type TimesheetDependencies interface {
	Generate(ctx context.Context, name string) (service.Result, error)
}

// TimesheetHandler handles timesheet generation requests.
type TimesheetHandler struct {
	deps TimesheetDependencies
	fs   afero.Fs
}

// NewTimesheetHandler creates a new timesheet handler reading results from fs.
func NewTimesheetHandler(deps TimesheetDependencies, fs afero.Fs) *TimesheetHandler {
	return &TimesheetHandler{deps: deps, fs: fs}
}

// timesheetRequest mirrors the OpenAPI schema for POST /timesheet.
type timesheetRequest struct {
	UserName string `json:"user_name"`
}

func (t timesheetRequest) validate() error {
	if strings.TrimSpace(t.UserName) == "" {
		return fmt.Errorf("%w: missing user_name", ErrBadRequest)
	}
	return nil
}

// HandlePostTimesheet handles POST /timesheet requests. The body is either a
// form with user_name or a JSON object; the response is the workbook.
func (h *TimesheetHandler) HandlePostTimesheet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	req, err := decodeTimesheetRequest(r)
	if err == nil {
		err = req.validate()
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	res, err := h.deps.Generate(r.Context(), req.UserName)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	f, err := h.fs.Open(res.Path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "timesheet_failed", fmt.Errorf("%w: %v", ErrNotReady, err))
		return
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "timesheet_failed", fmt.Errorf("%w: %v", ErrNotReady, err))
		return
	}

	name := filepath.Base(res.Path)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("X-Run-ID", res.Run.ID.String())
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func decodeTimesheetRequest(r *http.Request) (timesheetRequest, error) {
	var req timesheetRequest
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		return req, nil
	}
	if err := r.ParseForm(); err != nil {
		return req, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	req.UserName = r.PostFormValue("user_name")
	return req, nil
}
