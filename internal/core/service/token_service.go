package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/99minutos/user-auth-service/internal/core/domain"
	"github.com/99minutos/user-auth-service/internal/core/ports"
)

const (
	defaultValidFor       = time.Hour
	defaultRefreshableFor = 10 * time.Hour
)

// TokenConfig holds the process-wide signing settings. It is read-only once
// the service is constructed.
type TokenConfig struct {
	SignerKey []byte
	Issuer    string
	// ValidFor is the lifetime applied when Issue is called without a ttl.
	ValidFor time.Duration
	// RefreshableFor is measured from iat and bounds how long a token may be
	// exchanged through Refresh, even after it expired.
	RefreshableFor time.Duration
}

// tokenClaims is the wire form. Roles travel as plain names in scope; the
// authority prefix is applied by the access control middleware.
type tokenClaims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// JWTService implements ports.TokenService with HS512-signed JWTs and a
// denylist for logout.
type JWTService struct {
	cfg      TokenConfig
	denylist ports.Denylist
	log      zerolog.Logger
	now      func() time.Time
}

func NewJWTService(cfg TokenConfig, denylist ports.Denylist, log zerolog.Logger) *JWTService {
	if cfg.ValidFor <= 0 {
		cfg.ValidFor = defaultValidFor
	}
	if cfg.RefreshableFor <= 0 {
		cfg.RefreshableFor = defaultRefreshableFor
	}
	return &JWTService{
		cfg:      cfg,
		denylist: denylist,
		log:      log,
		now:      time.Now,
	}
}

// Issue signs a token for subject carrying roles. A non-positive ttl uses the
// configured default.
func (s *JWTService) Issue(_ context.Context, subject string, roles domain.Roles, ttl time.Duration) (domain.Token, error) {
	if subject == "" {
		return domain.Token{}, errors.New("issue token: empty subject")
	}
	if ttl <= 0 {
		ttl = s.cfg.ValidFor
	}

	now := s.now().UTC()
	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
	exp := now.Add(ttl)

	claims := tokenClaims{
		Scope: roles.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   subject,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.cfg.SignerKey)
	if err != nil {
		return domain.Token{}, fmt.Errorf("sign token: %w", err)
	}

	return domain.Token{Value: signed, ID: id, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Decode verifies signature, algorithm, expiry and revocation.
func (s *JWTService) Decode(ctx context.Context, token string) (*domain.Claims, error) {
	claims, err := s.parse(token, true)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNotRevoked(ctx, claims.ID); err != nil {
		return nil, err
	}
	return toDomainClaims(claims), nil
}

// Introspect never fails; any decode error yields an inactive result.
func (s *JWTService) Introspect(ctx context.Context, token string) domain.Introspection {
	claims, err := s.Decode(ctx, token)
	if err != nil {
		s.log.Debug().Err(err).Msg("introspection: token inactive")
		return domain.Introspection{Active: false}
	}
	return domain.Introspection{Active: true, Claims: claims}
}

// Refresh exchanges a token that is still inside its refresh window for a new
// one with the same subject and roles.
func (s *JWTService) Refresh(ctx context.Context, token string) (domain.Token, error) {
	claims, err := s.Rotate(ctx, token)
	if err != nil {
		return domain.Token{}, err
	}
	return s.Issue(ctx, claims.Subject, claims.Roles, 0)
}

// Rotate checks that token may still be refreshed, revokes it and returns its
// claims so the caller can issue the replacement. The revocation is an atomic
// claim on the jti: of several concurrent rotations of one token only one
// succeeds, the rest get ErrTokenRevoked.
func (s *JWTService) Rotate(ctx context.Context, token string) (*domain.Claims, error) {
	claims, err := s.parse(token, false)
	if err != nil {
		return nil, err
	}

	deadline := s.refreshDeadline(claims)
	if !s.now().Before(deadline) {
		return nil, domain.ErrTokenExpired
	}
	claimed, err := s.denylist.Claim(ctx, claims.ID, deadline)
	if err != nil {
		return nil, fmt.Errorf("rotate: revoke previous token: %w", err)
	}
	if !claimed {
		return nil, domain.ErrTokenRevoked
	}
	return toDomainClaims(claims), nil
}

// Revoke adds the token id to the denylist for the rest of its refreshable
// life. Tokens already past that point are dead and need no entry.
func (s *JWTService) Revoke(ctx context.Context, token string) error {
	claims, err := s.parse(token, false)
	if err != nil {
		return err
	}

	deadline := s.refreshDeadline(claims)
	if !s.now().Before(deadline) {
		return nil
	}
	if err := s.denylist.Revoke(ctx, claims.ID, deadline); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// parse verifies the signature and algorithm. With validate=false the time
// based claims are not checked, which Refresh and Revoke need.
func (s *JWTService) parse(token string, validate bool) (*tokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	if !validate {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.cfg.SignerKey, nil
	}, opts...)
	if err != nil {
		return nil, classifyJWTError(err)
	}
	if claims.ID == "" || claims.Subject == "" || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing registered claims", domain.ErrTokenMalformed)
	}
	return claims, nil
}

func (s *JWTService) ensureNotRevoked(ctx context.Context, id string) error {
	revoked, err := s.denylist.IsRevoked(ctx, id)
	if err != nil {
		return fmt.Errorf("denylist lookup: %w", err)
	}
	if revoked {
		return domain.ErrTokenRevoked
	}
	return nil
}

func (s *JWTService) refreshDeadline(c *tokenClaims) time.Time {
	deadline := c.IssuedAt.Add(s.cfg.RefreshableFor)
	if exp := c.ExpiresAt.Time; exp.After(deadline) {
		return exp
	}
	return deadline
}

func classifyJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", domain.ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", domain.ErrTokenInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", domain.ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrTokenMalformed, err)
	}
}

func toDomainClaims(c *tokenClaims) *domain.Claims {
	return &domain.Claims{
		ID:        c.ID,
		Subject:   c.Subject,
		Issuer:    c.Issuer,
		Roles:     domain.ParseRoles(c.Scope),
		IssuedAt:  c.IssuedAt.Time,
		ExpiresAt: c.ExpiresAt.Time,
	}
}
