package errors

import "errors"

var (
	ErrVenueNotFound = errors.New("venue not found")

	ErrCourtNotFound = errors.New("court not found")

	ErrInvalidID = errors.New("invalid ID format")
)
