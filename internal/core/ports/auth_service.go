package ports

import (
	"context"
	"time"

	"github.com/sirpyerre/chat-system/internal/core/domain"
)

// AuthService covers account lifecycle and session resolution.
type AuthService interface {
	Signup(ctx context.Context, fullName, email, password string) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	Logout(ctx context.Context, token string) error
	// Authenticate resolves the account bound to a session token.
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	UpdateProfilePic(ctx context.Context, userID, payload string) (*domain.User, error)
	TokenTTL() time.Duration
}

// TokenRevoker tracks session tokens invalidated before their expiry.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
