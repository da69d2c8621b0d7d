package shift

import (
	"math"
	"strconv"
	"strings"
)

// Extraction is the raw data pulled out of an event title.
type Extraction struct {
	RoleCode string
	Hours    float64
}

// ExtractShift finds "<name> (<role> <hours>)" in title.
//
// The match is an exact-case substring search, so a name that is a prefix of
// another person's name ("Neel J." inside "Neel J. Joshi") matches too. Only
// the first parenthesised group after the name is considered. The group must
// hold exactly two fields separated by a single space, and hours must be a
// finite, non-negative number.
func ExtractShift(title, name string) (Extraction, bool) {
	if name == "" || !strings.Contains(title, name) {
		return Extraction{}, false
	}

	open := strings.Index(title, name+" (")
	if open < 0 {
		return Extraction{}, false
	}
	start := open + len(name) + 2

	end := strings.Index(title[start:], ")")
	if end < 0 {
		return Extraction{}, false
	}

	parts := strings.Split(title[start:start+end], " ")
	if len(parts) != 2 {
		return Extraction{}, false
	}

	hours, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || math.IsNaN(hours) || math.IsInf(hours, 0) || hours < 0 {
		return Extraction{}, false
	}

	return Extraction{RoleCode: parts[0], Hours: hours}, true
}
