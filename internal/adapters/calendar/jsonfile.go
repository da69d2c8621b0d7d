package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"github.com/okian/shiftsheet/internal/domain/shift"
)

// JSONFile lists events from a JSON array of shift.CalendarEvent stored on
// disk. Events whose start cannot be read are kept as-is; everything else is
// filtered to the window.
type JSONFile struct {
	fs   afero.Fs
	path string
}

// NewJSONFile creates a fixture source reading path from fs.
func NewJSONFile(fs afero.Fs, path string) *JSONFile {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &JSONFile{fs: fs, path: path}
}

// Name implements Source.
func (j *JSONFile) Name() string { return "json" }

// List implements Source.
func (j *JSONFile) List(ctx context.Context, w Window) ([]shift.CalendarEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := afero.ReadFile(j.fs, j.path)
	if err != nil {
		return nil, fmt.Errorf("%w: json %s: %v", ErrFetch, j.path, err)
	}
	var events []shift.CalendarEvent
	if err := json.Unmarshal(b, &events); err != nil {
		return nil, fmt.Errorf("%w: json %s: %v", ErrParse, j.path, err)
	}

	out := make([]shift.CalendarEvent, 0, len(events))
	for _, ev := range events {
		start, ok := parseStart(ev.Start)
		if ok {
			end, endOK := parseStart(ev.End)
			if !endOK {
				end = start
			}
			if len(ev.Start) == len(time.DateOnly) && !end.After(start) {
				end = start.Add(allDayEventLength)
			}
			if !w.Overlaps(start, end) {
				continue
			}
		}
		out = append(out, ev)
	}
	return out, nil
}
