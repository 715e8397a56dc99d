package user

import "errors"

var (
	ErrNotFound           = errors.New("user not found")
	ErrValidation         = errors.New("validation error")
	ErrPhoneTaken         = errors.New("phone number already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
