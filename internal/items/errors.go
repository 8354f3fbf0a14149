package items

import (
	"errors"
	"fmt"
)

// Sentinel errors for item API operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, items.ErrItemNotFound) {
//	    // handle missing item
//	}
var (
	// ErrItemNotFound is returned when the server reports no such item.
	ErrItemNotFound = errors.New("items: item not found")

	// ErrUnauthorized is returned when the server rejects the credentials.
	ErrUnauthorized = errors.New("items: unauthorised")

	// ErrBadRequest is returned when the server rejects the request body,
	// typically an item command outside the item's accepted set.
	ErrBadRequest = errors.New("items: bad request")

	// ErrServerUnreachable is returned for network failures and 5xx
	// responses: the automation server could not be reached or could not
	// answer.
	ErrServerUnreachable = errors.New("items: server unreachable")
)

// StatusError wraps an unexpected HTTP status from the item API.
//
// It carries one of the sentinel errors above so callers can classify with
// errors.Is while retaining the raw status for logging.
type StatusError struct {
	StatusCode int
	Method     string
	Path       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("items: %s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}

// Unwrap maps the status code onto the sentinel taxonomy.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case 400:
		return ErrBadRequest
	case 401, 403:
		return ErrUnauthorized
	case 404:
		return ErrItemNotFound
	default:
		return ErrServerUnreachable
	}
}
