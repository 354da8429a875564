package scoring

import "errors"

// Sentinel kinds for rubric validation failures. Callers match with errors.Is.
var (
	// ErrMissingField marks an evaluation with a required rubric field absent.
	ErrMissingField = errors.New("missing required field")

	// ErrOutOfRange marks a rubric field outside its declared domain.
	ErrOutOfRange = errors.New("field out of range")
)
