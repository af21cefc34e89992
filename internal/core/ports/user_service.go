package ports

import (
	"context"
	"time"

	"github.com/99minutos/user-auth-service/internal/core/domain"
)

// RegisterInput is the DTO passed from the transport layer to UserService.Register.
type RegisterInput struct {
	Username string
	Password string
	Profile  domain.Profile
}

// UpdateUserInput carries a partial update. Nil fields are left unchanged.
type UpdateUserInput struct {
	Password  *string
	FirstName *string
	LastName  *string
	DOB       *time.Time
	Roles     *domain.Roles
}

// UserService defines use-case operations for user accounts.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Me(ctx context.Context, actor domain.Principal) (*domain.User, error)
	Get(ctx context.Context, actor domain.Principal, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, actor domain.Principal, id string, in UpdateUserInput) (*domain.User, error)
	// EnsureAdmin creates the bootstrap administrator when it does not exist yet.
	EnsureAdmin(ctx context.Context, username, password string) error
}
