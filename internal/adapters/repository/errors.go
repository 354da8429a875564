package repository

import "errors"

// Sentinel kinds for report store errors.
var (
	ErrNotFound     = errors.New("article not found")
	ErrInvalidLimit = errors.New("invalid report limit")
)
