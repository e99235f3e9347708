package cart

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidItem   = errors.New("invalid cart item")
	ErrItemNotInCart = errors.New("item not in cart")
	ErrPersist       = errors.New("persist cart")
	ErrEmptyCart     = errors.New("cart is empty")

	// ErrCorruptState marks a stored cart that cannot be decoded at all. Open
	// discards it; any other Load error is a storage failure.
	ErrCorruptState = errors.New("stored cart is corrupt")
)

// ValidationError reports a malformed mutation input. It matches ErrInvalidItem.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidItem }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
