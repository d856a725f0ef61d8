// Package apperr holds the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrNoTask     = errors.New("no task")
	ErrOutOfRange = errors.New("out of range")
)
