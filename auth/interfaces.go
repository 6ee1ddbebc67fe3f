// Package auth provides the authentication gate consulted by the gateway
// before any operation runs, with implementations backed by static API keys
// or a SQLite access-code table.
package auth

import (
	"context"
	"errors"
)

// Common authentication errors.
var (
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// Authenticator validates a caller-supplied token. The gateway treats the
// result as a boolean gate: any error short-circuits the request as
// unauthorized before a handler is selected.
type Authenticator interface {
	// Authenticate validates a token and returns the associated user ID.
	Authenticate(ctx context.Context, token string) (userID string, err error)
}
