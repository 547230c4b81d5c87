package models

import "errors"

// Error taxonomy shared by every layer. Callers wrap these with
// fmt.Errorf("%w: ...") and test with errors.Is.
var (
	// ErrValidation marks malformed input: a bad passenger identity, a
	// structured request missing fields, an out-of-range selection.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks an unresolvable city or location code, or a date
	// with no offers.
	ErrNotFound = errors.New("not found")

	// ErrExternalService marks a collaborator that was unreachable or
	// answered with an error status.
	ErrExternalService = errors.New("external service error")

	// ErrUserCancelled is returned when the user typed a cancel sentinel.
	ErrUserCancelled = errors.New("cancelled by user")
)
