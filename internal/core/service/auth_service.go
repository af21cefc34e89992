package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/user-auth-service/internal/core/domain"
	"github.com/99minutos/user-auth-service/internal/core/ports"
)

// AuthService implements login and the token lifecycle on top of the
// credential store and the token service.
type AuthService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenService
	logger zerolog.Logger
	// dummyHash is verified against when the username is unknown so both
	// failure paths cost one hash comparison.
	dummyHash string
}

func NewAuthService(repo ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenService, logger zerolog.Logger) *AuthService {
	dummy, err := hasher.Hash("unknown-user-placeholder")
	if err != nil {
		logger.Warn().Err(err).Msg("could not prepare dummy password hash")
	}
	return &AuthService{repo: repo, hasher: hasher, tokens: tokens, logger: logger, dummyHash: dummy}
}

// Login verifies the password and mints a token embedding the stored roles.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (domain.Token, error) {
	if username == "" || password == "" {
		return domain.Token{}, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.hasher.Verify(password, s.dummyHash)
		s.logger.Info().Str("username", username).Msg("login rejected: unknown user")
		return domain.Token{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.Token{}, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.Info().Str("username", username).Msg("login rejected: bad password")
		return domain.Token{}, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(ctx, user.Username, user.Roles, 0)
	if err != nil {
		return domain.Token{}, fmt.Errorf("login: %w", err)
	}

	s.logger.Info().Str("username", user.Username).Str("jti", token.ID).Msg("token issued")
	return token, nil
}

func (s *AuthService) Introspect(ctx context.Context, token string) domain.Introspection {
	return s.tokens.Introspect(ctx, token)
}

// Refresh rotates token and issues a replacement carrying the roles currently
// stored for the subject, so role changes take effect without a new login.
func (s *AuthService) Refresh(ctx context.Context, token string) (domain.Token, error) {
	claims, err := s.tokens.Rotate(ctx, token)
	if err != nil {
		return domain.Token{}, err
	}

	user, err := s.repo.FindByUsername(ctx, claims.Subject)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.Token{}, domain.ErrUnauthenticated
	}
	if err != nil {
		return domain.Token{}, fmt.Errorf("refresh: %w", err)
	}

	fresh, err := s.tokens.Issue(ctx, user.Username, user.Roles, 0)
	if err != nil {
		return domain.Token{}, fmt.Errorf("refresh: %w", err)
	}

	s.logger.Info().Str("username", user.Username).Str("previous_jti", claims.ID).Str("jti", fresh.ID).Msg("token refreshed")
	return fresh, nil
}

// Logout revokes token. Revoking an already dead token succeeds.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.tokens.Revoke(ctx, token); err != nil {
		return err
	}
	s.logger.Info().Msg("token revoked")
	return nil
}
