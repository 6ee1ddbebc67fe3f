package auth

import (
	"context"
	"strings"
)

// APIKeyAuthenticator implements authentication using static API keys.
type APIKeyAuthenticator struct {
	validKeys map[string]bool
}

// NewAPIKeyAuthenticator creates a new API key authenticator.
func NewAPIKeyAuthenticator(keys []string) *APIKeyAuthenticator {
	validKeys := make(map[string]bool)
	for _, key := range keys {
		if key != "" {
			validKeys[key] = true
		}
	}
	return &APIKeyAuthenticator{validKeys: validKeys}
}

// Authenticate validates a token and returns the associated user ID. A
// "Bearer " prefix is tolerated so the raw Authorization header value can be
// passed through.
func (a *APIKeyAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" || !a.validKeys[token] {
		return "", ErrAuthenticationFailed
	}
	// API keys are not mapped to individual users.
	return "apikey", nil
}
