package ports

import (
	"context"

	"github.com/99minutos/user-auth-service/internal/core/domain"
)

// UserRepository is the credential store. Implementations must enforce
// username uniqueness at the storage layer and report a conflict as
// domain.ErrUserExists.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	// Update replaces the profile, password hash and role set of an existing user.
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	Ping(ctx context.Context) error
}
