package repositories

import (
	"context"
	"time"
)

// TokenRepository stores opaque refresh tokens in redis, keyed both
// ways: token -> email for validation, and a per-email set for bulk
// revocation on logout. The client is constructed at process start and
// injected; there is no package-level handle.
type TokenRepository interface {
	// Store records a refresh token for the user with the given TTL.
	Store(ctx context.Context, email, token string, ttl time.Duration) error

	// Validate resolves a refresh token back to the owning email.
	// Unknown or expired tokens yield ErrNotFound.
	Validate(ctx context.Context, token string) (string, error)

	// Revoke removes a single refresh token.
	Revoke(ctx context.Context, email, token string) error

	// RevokeAll removes every refresh token of the user.
	RevokeAll(ctx context.Context, email string) error
}
