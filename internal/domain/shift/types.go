// Package shift turns calendar events into work-shift records.
package shift

import "sort"

// DefaultLocation is used when an event carries no location.
const DefaultLocation = "No location specified"

// UnknownPosition is rendered for records whose role code did not resolve.
const UnknownPosition = "Unknown"

// CalendarEvent is the read-only view of a calendar entry the parser needs.
// Start and End hold the raw values returned by the calendar: an RFC3339
// date-time or a YYYY-MM-DD all-day date.
type CalendarEvent struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Location string `json:"location,omitempty"`
}

// Record is a single parsed work entry.
type Record struct {
	Start    string  `json:"start"`
	End      string  `json:"end"`
	Location string  `json:"location"`
	Hours    float64 `json:"hours"`
	// RoleCode is the raw code from the title, kept for diagnostics.
	RoleCode string `json:"role_code"`
	// Position is empty when RoleCode is not in the role map.
	Position string `json:"position,omitempty"`
}

// Label returns the position to show in a timesheet.
func (r Record) Label() string {
	if r.Position == "" {
		return UnknownPosition
	}
	return r.Position
}

// DefaultRoles maps the role codes used in event titles to positions.
func DefaultRoles() map[string]string {
	return map[string]string{
		"M": "Summer Manager",
		"S": "Summer Teacher",
	}
}

// DefaultCatalog returns the positions offered in the timesheet drop-down.
func DefaultCatalog() []string {
	return []string{
		"Back Office",
		"ISFT Assistant",
		"ISFT Lead",
		"PSS",
		"Special Event",
		"Summer Manager",
		"Summer Teacher",
		"Teacher - Assistant",
		"Teacher - Lead",
		"Teacher - Online Class",
	}
}

// Summary aggregates a set of records.
type Summary struct {
	Shifts     int                `json:"shifts"`
	TotalHours float64            `json:"total_hours"`
	ByPosition map[string]float64 `json:"by_position"`
	Unknown    int                `json:"unknown"`
}

// Summarize totals hours overall and per rendered position label.
func Summarize(records []Record) Summary {
	s := Summary{Shifts: len(records), ByPosition: make(map[string]float64)}
	for _, r := range records {
		s.TotalHours += r.Hours
		s.ByPosition[r.Label()] += r.Hours
		if r.Position == "" {
			s.Unknown++
		}
	}
	return s
}

// Positions returns the labels present in s, sorted.
func (s Summary) Positions() []string {
	out := make([]string, 0, len(s.ByPosition))
	for p := range s.ByPosition {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
