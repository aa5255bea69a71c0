package doctemplate

import "errors"

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNoFieldsToUpdate = errors.New("no fields to update")
	// ErrNotFileTemplate is returned when a download is asked of a text template.
	ErrNotFileTemplate = errors.New("template has no file")
	ErrStorageDisabled = errors.New("file storage is not configured")
)
