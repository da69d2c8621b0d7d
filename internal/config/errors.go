package config

import "errors"

// Sentinel kinds returned by Load and Validate.
var (
	ErrInvalidConfig = errors.New("invalid shiftsheet config")
	ErrLoadConfig    = errors.New("cannot read shiftsheet config")
)
