package entity

import "errors"

var (
	// ErrNoCredentials aborts a run before any request is dispatched
	ErrNoCredentials = errors.New("no session credentials")

	// ErrInvalidDateRange is returned when the start date is after the end date
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrUnexpectedStatus marks a non-200 portal response
	ErrUnexpectedStatus = errors.New("unexpected status code")

	// ErrMalformedResponse marks a portal body that is not JSON
	ErrMalformedResponse = errors.New("malformed response")

	// ErrUnsuccessfulResponse marks a response whose header error code is not a success code
	ErrUnsuccessfulResponse = errors.New("unsuccessful response")
)
