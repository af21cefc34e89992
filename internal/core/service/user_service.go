package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/user-auth-service/internal/core/domain"
	"github.com/99minutos/user-auth-service/internal/core/ports"
)

var adminAuthority = domain.AuthorityPrefix + domain.RoleAdmin

type UserService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	logger zerolog.Logger
}

func NewUserService(repo ports.UserRepository, hasher ports.PasswordHasher, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, hasher: hasher, logger: logger}
}

// Register stores a new account with the default role. Field formats are
// checked by the transport layer before this is called.
func (s *UserService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    in.Profile.FirstName,
		LastName:     in.Profile.LastName,
		DOB:          in.Profile.DOB,
		Roles:        domain.NewRoles(domain.RoleUser),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if !errors.Is(err, domain.ErrUserExists) {
			s.logger.Error().Err(err).Str("username", in.Username).Msg("failed to create user")
		}
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return created, nil
}

// Me returns the account of the authenticated caller.
func (s *UserService) Me(ctx context.Context, actor domain.Principal) (*domain.User, error) {
	user, err := s.repo.FindByUsername(ctx, actor.Subject)
	if errors.Is(err, domain.ErrUserNotFound) {
		// The token outlived the account.
		return nil, domain.ErrUnauthenticated
	}
	return user, err
}

// Get returns the user with id. Only administrators may read other accounts;
// for everyone else a missing id looks the same as a foreign one.
func (s *UserService) Get(ctx context.Context, actor domain.Principal, id string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	isAdmin := actor.HasAuthority(adminAuthority)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) && !isAdmin {
			return nil, domain.ErrForbidden
		}
		return nil, err
	}
	if !isAdmin && user.Username != actor.Subject {
		return nil, domain.ErrForbidden
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

// Update applies a partial change. Role changes require the admin authority.
func (s *UserService) Update(ctx context.Context, actor domain.Principal, id string, in ports.UpdateUserInput) (*domain.User, error) {
	user, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Roles != nil && !actor.HasAuthority(adminAuthority) {
		return nil, domain.ErrForbidden
	}

	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.DOB != nil {
		dob := *in.DOB
		user.DOB = &dob
	}
	if in.Roles != nil {
		user.Roles = domain.NewRoles(*in.Roles...)
	}
	user.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", updated.ID).Str("actor", actor.Subject).Bool("roles_changed", in.Roles != nil).Msg("user updated")
	return updated, nil
}

// EnsureAdmin creates the bootstrap administrator if it is missing. An
// existing account is left untouched.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	_, err := s.repo.FindByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("ensure admin: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	now := time.Now().UTC()
	admin := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Roles:        domain.NewRoles(domain.RoleAdmin, domain.RoleUser),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.repo.Create(ctx, admin); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil
		}
		return fmt.Errorf("ensure admin: %w", err)
	}

	s.logger.Info().Str("username", username).Msg("bootstrap admin created")
	return nil
}
