package app

import "errors"

// Domain errors surfaced to callers. Validation failures never mutate state.
var (
	// ErrDuplicateEmail indicates the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrUserNotFound indicates a wishlist toggle for an unknown user.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidPrice indicates a negative listing price.
	ErrInvalidPrice = errors.New("price must not be negative")

	// ErrInvalidScore indicates a review score outside 1..5.
	ErrInvalidScore = errors.New("review score must be between 1 and 5")
)
