package synthesis

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("candidate not found")
	ErrUnknownSynthesis = errors.New("unknown synthesis")
	// ErrNoSourceData means every source the synthesis reads was empty.
	ErrNoSourceData = errors.New("no source data available")
	// ErrMalformedReply means the model reply could not be used. Nothing is stored.
	ErrMalformedReply = errors.New("malformed model reply")
	ErrUpstream       = errors.New("model call failed")
)
