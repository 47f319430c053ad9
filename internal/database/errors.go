package database

import "errors"

var (
	// ErrNotFound is returned when no row matches the requested id.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidTransition is returned when a status update would leave
	// the legal booking lifecycle.
	ErrInvalidTransition = errors.New("illegal booking status transition")

	// ErrDuplicateEmail is returned when a sign-up reuses an email.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrDuplicateReview is returned on a second review for one booking.
	ErrDuplicateReview = errors.New("booking already reviewed")
)
