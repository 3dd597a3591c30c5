package auth

import "errors"

var (
	// ErrInvalidCredentials is the collapsed, user-facing login
	// failure. It deliberately hides which identity class matched the
	// username, if any.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrIdentityNotFound is returned by Resolve when no class claims
	// the username. Internal only; login flows collapse it into
	// ErrInvalidCredentials.
	ErrIdentityNotFound = errors.New("auth: identity not found")

	// ErrUpstreamUnavailable means the directory store or the primary
	// provider could not be reached. Retryable, distinct from a
	// credential failure.
	ErrUpstreamUnavailable = errors.New("auth: upstream unavailable")
)
