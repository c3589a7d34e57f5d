package printer

import "errors"

var (
	ErrNotFound         = errors.New("printer not found")
	ErrTemplateNotFound = errors.New("print template not found")
)
