package internal

import (
	"errors"
	"fmt"
)

// Sentinel errors for every failure the gateway reports back to a session.
// Handlers wrap these with fmt.Errorf("%w: ...") to add detail; ErrorKind
// recovers the machine-readable kind for the outbound error event.
var (
	ErrUsernameTaken    = errors.New("username already taken")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotFound         = errors.New("not found")
	ErrRecipientOffline = errors.New("recipient offline")
	ErrValidation       = errors.New("validation failed")
	ErrRateLimited      = errors.New("rate limited")
)

// ErrorKind maps an error to the kind string carried by error events.
// Unknown errors collapse to "internal" so no detail leaks to clients.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrUsernameTaken):
		return "username_taken"
	case errors.Is(err, ErrNotAuthenticated):
		return "not_authenticated"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRecipientOffline):
		return "recipient_offline"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	default:
		return "internal"
	}
}

func notFound(what, key string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, what, key)
}
