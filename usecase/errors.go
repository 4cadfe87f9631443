package usecase

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks requests rejected before any dialogue logic ran
	ErrInvalidInput = errors.New("invalid input")
	// ErrForbidden is returned when a user touches another user's conversation
	ErrForbidden = errors.New("conversation belongs to another user")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
