package appointment

import "errors"

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrNoFieldsToUpdate    = errors.New("no fields to update")
)
