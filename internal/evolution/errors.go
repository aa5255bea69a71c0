package evolution

import "errors"

var (
	ErrEvolutionNotFound = errors.New("evolution not found")
	ErrPatientNotFound   = errors.New("patient not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNoFieldsToUpdate  = errors.New("no fields to update")
)
