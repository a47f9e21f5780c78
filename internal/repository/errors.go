package repository

import "errors"

// ErrStaleUpdate is returned when a conditional update matched no rows
// because the expected value changed underneath the caller.
var ErrStaleUpdate = errors.New("conditional update matched no rows")
