package errors

import "errors"

var (
	ErrNotFound = errors.New("party reservation not found")

	ErrInvalidID = errors.New("invalid party reservation ID format")
)
