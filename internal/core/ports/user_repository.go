package ports

import (
	"context"

	"github.com/sirpyerre/chat-system/internal/core/domain"
)

// UserRepository is the account directory.
type UserRepository interface {
	// FindByEmail returns domain.ErrUserNotFound when no account has the email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// ListExcluding returns every account except id.
	ListExcluding(ctx context.Context, id string) ([]*domain.User, error)
	// Create fails with domain.ErrDuplicateEmail when the email is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateProfilePic(ctx context.Context, id, url string) (*domain.User, error)
}
