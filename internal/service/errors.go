package service

import "errors"

var (
	// ErrValidation wraps user input problems.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is returned when a task is no longer pending.
	ErrInvalidTransition = errors.New("task is not pending")
)
