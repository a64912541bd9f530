package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record id does not resolve. Repeated
	// deletes of the same id get this too, not a no-op.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateName is returned for course name collisions and for a
	// question whose text already exists within the same lesson.
	ErrDuplicateName = errors.New("name already exists")

	// ErrMissingParent is returned when the referenced parent entity
	// (course for a unit, unit for a lesson, lesson for a question) is gone.
	ErrMissingParent = errors.New("parent record not found")

	// ErrStorage is returned when persisting an uploaded file fails.
	ErrStorage = errors.New("storage operation failed")

	// ErrInvalidCredentials is returned on a failed login or password check.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ValidationError carries a human-readable reason for a rejected mutation.
// The operation that produced it performed no partial write.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
