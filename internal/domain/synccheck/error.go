package synccheck

import "errors"

var ErrNotFound = errors.New("check request not found")
