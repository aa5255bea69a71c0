package document

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrTemplateNotRenderable = errors.New("file templates cannot be rendered")
)
