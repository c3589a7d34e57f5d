package layout

import "errors"

var (
	ErrNotFound      = errors.New("section not found")
	ErrTableNotFound = errors.New("table not found in section")
)
