package service

import (
	"errors"
	"fmt"

	"github.com/gemmoherb/portal/pkg/repository"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")

	ErrOutOfStock      = fmt.Errorf("%w: product out of stock", ErrConflict)
	ErrAccountPending  = fmt.Errorf("%w: account awaiting approval", ErrForbidden)
	ErrAccountRejected = fmt.Errorf("%w: registration rejected", ErrForbidden)
	ErrUsernameTaken   = fmt.Errorf("%w: username already exists", ErrConflict)
)

// storeError converts repository errors into service errors. what names the entity
// involved, e.g. "order 12".
func storeError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%s: %w", what, ErrConflict)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// IsInternal reports whether err falls outside the service error taxonomy.
func IsInternal(err error) bool {
	for _, known := range []error{ErrUnauthorized, ErrForbidden, ErrNotFound, ErrConflict, ErrInvalidInput} {
		if errors.Is(err, known) {
			return false
		}
	}
	return err != nil
}
