// Package errs holds the sentinels shared by repositories, the token issuer and
// the flow controller, plus the structured flow error the HTTP boundary maps to
// a status code.
package errs

import "errors"

var (
	// ErrNotFound is returned by lookups when no row matches (client, user, token).
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized marks failed credential or bearer token checks.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited means the (login, ip) pair is blocked after repeated failures.
	ErrRateLimited = errors.New("rate limited")
)
