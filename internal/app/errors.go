package service

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrEmptyName   = errors.New("user name must not be empty")
	ErrUnknownName = errors.New("user name not found in calendar")
	ErrFetch       = errors.New("calendar events unavailable")
	ErrNoSource    = errors.New("no calendar source configured")
	ErrNoWriter    = errors.New("no timesheet writer configured")
)
