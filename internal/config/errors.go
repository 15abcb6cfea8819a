package config

import "errors"

// ErrInvalidConfig wraps a specific validation failure; use errors.Is to
// classify the broad category without string matching.
var ErrInvalidConfig = errors.New("invalid configuration")
