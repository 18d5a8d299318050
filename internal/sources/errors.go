package sources

import "errors"

var (
	ErrNotFound       = errors.New("source record not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnknownRecord  = errors.New("unknown source record")
	ErrUnknownField   = errors.New("unknown source field")
	ErrUnknownSection = errors.New("unknown linkedin section")
)
