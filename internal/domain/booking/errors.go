package booking

import "errors"

var (
	ErrValidation = errors.New("validation error")
	// ErrStepOrder is returned when a selection is made before the
	// previous step is complete.
	ErrStepOrder   = errors.New("booking step out of order")
	ErrSlotTaken   = errors.New("slot is already taken")
	ErrNotCustomer = errors.New("caller is not a known user")
)
