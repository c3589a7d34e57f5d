package push

import "errors"

var (
	ErrUnknownCollection  = errors.New("unknown collection")
	ErrEmptyBatch         = errors.New("batch contains no operations")
	ErrEmptyRequestID     = errors.New("request id is empty")
	ErrRequestIDMismatch  = errors.New("operation request id does not match batch")
	ErrMalformedOperation = errors.New("malformed operation payload")
)
