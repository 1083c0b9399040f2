package account

import "errors"

var (
	// ErrAccountNotFound is returned when no account matches the lookup key
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateUsername is returned when creating an account whose
	// username is already taken
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrPasswordMismatch is returned when the current password presented
	// for a password change is wrong
	ErrPasswordMismatch = errors.New("current password is incorrect")

	// ErrInvalidEmail is returned for malformed email input
	ErrInvalidEmail = errors.New("invalid email address")
)
