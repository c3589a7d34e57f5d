package device

import "errors"

var (
	ErrNotFound   = errors.New("device user not found")
	ErrInvalidPIN = errors.New("invalid PIN")
)
