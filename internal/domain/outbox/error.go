package outbox

import "errors"

var (
	ErrUnknownAction = errors.New("unknown outbox action")
	ErrEmptyPayload  = errors.New("empty operation payload")
	ErrBatchNotFound = errors.New("request batch not found")
)
