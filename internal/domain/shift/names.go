package shift

import (
	"sort"
	"strings"
)

// Names lists the people mentioned in event titles. Titles may list several
// people joined by "&"; for each, the text before the first "(" is the name.
func Names(events []CalendarEvent) []string {
	seen := make(map[string]struct{})
	for _, ev := range events {
		for _, part := range strings.Split(ev.Title, "&") {
			name := strings.TrimSpace(part)
			if i := strings.Index(name, "("); i >= 0 {
				name = strings.TrimSpace(name[:i])
			}
			if name == "" {
				continue
			}
			seen[name] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// HasName reports whether name appears in the candidate list produced by Names.
func HasName(events []CalendarEvent, name string) bool {
	for _, n := range Names(events) {
		if n == name {
			return true
		}
	}
	return false
}
