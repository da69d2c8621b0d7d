package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/okian/shiftsheet/internal/adapters/calendar"
	"github.com/okian/shiftsheet/internal/domain/shift"
)

// Run carries everything one generation needs. It is created per request and
// never shared.
type Run struct {
	ID     uuid.UUID       `json:"id"`
	Name   string          `json:"name"`
	Window calendar.Window `json:"window"`
	Now    time.Time       `json:"now"`
}

// NewRun starts a run for name covering the month of now.
func NewRun(name string, now time.Time) Run {
	return Run{
		ID:     uuid.New(),
		Name:   name,
		Window: calendar.MonthWindow(now),
		Now:    now,
	}
}

// Result is the outcome of a preview or a generation.
type Result struct {
	Run      Run            `json:"run"`
	Path     string         `json:"path,omitempty"`
	Records  []shift.Record `json:"records"`
	Summary  shift.Summary  `json:"summary"`
	Events   int            `json:"events"`
	Duration time.Duration  `json:"duration_ns"`
}
