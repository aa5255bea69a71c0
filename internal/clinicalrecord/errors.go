package clinicalrecord

import "errors"

var (
	ErrRecordNotFound   = errors.New("clinical record not found")
	ErrPatientNotFound  = errors.New("patient not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNoFieldsToUpdate = errors.New("no fields to update")
)
