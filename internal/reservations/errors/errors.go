package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrVehicleNotFound = errors.New("vehicle not found")

	ErrAccountNotFound = errors.New("account not found")

	// ErrStatusChanged signals a conditional status write that found the
	// reservation no longer in the expected prior status.
	ErrStatusChanged = errors.New("reservation status changed concurrently")
)
