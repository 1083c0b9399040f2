package recovery

import "errors"

var (
	// ErrAccountNotFound is returned when no account matches the lookup
	// key. User-facing surfaces must not distinguish it from
	// ErrInvalidToken.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidToken is returned when a presented token is wrong,
	// already consumed, or expired.
	ErrInvalidToken = errors.New("token is not valid or expired")

	// ErrAmbiguousEmail is returned when more than one account claims an
	// email address and no username disambiguates.
	ErrAmbiguousEmail = errors.New("multiple accounts claim this email address")

	// ErrValidation is returned for malformed input, e.g. an empty email.
	ErrValidation = errors.New("invalid input")
)
