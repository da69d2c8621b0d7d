package sheet

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrLayout   = errors.New("invalid timesheet layout")
	ErrTemplate = errors.New("timesheet template unavailable")
	ErrRecord   = errors.New("invalid shift record")
	ErrSave     = errors.New("save timesheet failed")
)

// RecordError pins a write failure to one record and field.
type RecordError struct {
	Index int
	Row   int
	Field string
	Value string
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d (row %d): %s %q: %v", e.Index, e.Row, e.Field, e.Value, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Is reports ErrRecord for every RecordError.
func (e *RecordError) Is(target error) bool { return target == ErrRecord }
