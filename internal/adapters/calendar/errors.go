package calendar

import "errors"

var (
	// ErrCredentials is returned when Google credentials cannot be read or parsed.
	ErrCredentials = errors.New("calendar credentials")
	// ErrFetch is returned when a source cannot deliver its events.
	ErrFetch = errors.New("calendar fetch failed")
	// ErrParse is returned when a source payload is not valid for its format.
	ErrParse = errors.New("calendar payload invalid")
	// ErrNoSources is returned by an empty merged source.
	ErrNoSources = errors.New("no calendar sources configured")
)
