package ports

import (
	"context"
	"time"

	"github.com/99minutos/user-auth-service/internal/core/domain"
)

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify never fails loudly: a malformed hash yields false.
	Verify(plaintext, hash string) bool
}

// Denylist records revoked token ids until they would have died anyway.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	// Claim revokes tokenID only if it is not revoked yet and reports whether
	// this call did it. Exactly one of any concurrent callers wins.
	Claim(ctx context.Context, tokenID string, until time.Time) (bool, error)
}

// TokenService issues and verifies bearer tokens.
type TokenService interface {
	Issue(ctx context.Context, subject string, roles domain.Roles, ttl time.Duration) (domain.Token, error)
	Decode(ctx context.Context, token string) (*domain.Claims, error)
	Introspect(ctx context.Context, token string) domain.Introspection
	Refresh(ctx context.Context, token string) (domain.Token, error)
	// Rotate revokes a refreshable token and returns its claims without
	// issuing a replacement.
	Rotate(ctx context.Context, token string) (*domain.Claims, error)
	Revoke(ctx context.Context, token string) error
}

// AuthService covers login and the token lifecycle endpoints.
type AuthService interface {
	Login(ctx context.Context, username, password string) (domain.Token, error)
	Introspect(ctx context.Context, token string) domain.Introspection
	Refresh(ctx context.Context, token string) (domain.Token, error)
	Logout(ctx context.Context, token string) error
}
