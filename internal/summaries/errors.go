package summaries

import "errors"

var (
	ErrNotFound     = errors.New("summary field not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnknownField = errors.New("unknown summary field")
)
