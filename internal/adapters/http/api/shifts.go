package api

import (
	"context"
	"net/http"

	service "github.com/okian/shiftsheet/internal/app"
)

// ShiftsDependencies previews parsed shifts.
type ShiftsDependencies interface {
	Preview(ctx context.Context, name string) (service.Result, error)
}

// ShiftsHandler handles shift preview requests.
type ShiftsHandler struct {
	deps ShiftsDependencies
}

// NewShiftsHandler creates a new shifts handler.
func NewShiftsHandler(deps ShiftsDependencies) *ShiftsHandler {
	return &ShiftsHandler{deps: deps}
}

// HandleGetShifts handles GET /shifts?name= requests.
func (h *ShiftsHandler) HandleGetShifts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	res, err := h.deps.Preview(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
