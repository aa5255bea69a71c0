package finance

import "errors"

var (
	ErrIncomeNotFound   = errors.New("income not found")
	ErrExpenseNotFound  = errors.New("expense not found")
	ErrPatientNotFound  = errors.New("patient not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNoFieldsToUpdate = errors.New("no fields to update")
)
