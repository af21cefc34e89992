package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/user-auth-service/internal/core/domain"
	"github.com/99minutos/user-auth-service/internal/core/ports"
)

type authFixture struct {
	repo   *stubUserRepo
	tokens *JWTService
	clock  *testClock
	deny   *stubDenylist
	svc    *AuthService
	users  *UserService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	repo := newStubUserRepo()
	hasher := NewBcryptHasher(bcrypt.MinCost)
	tokens, deny, clock := newTestTokenService(t)
	return &authFixture{
		repo:   repo,
		tokens: tokens,
		clock:  clock,
		deny:   deny,
		svc:    NewAuthService(repo, hasher, tokens, zerolog.Nop()),
		users:  NewUserService(repo, hasher, zerolog.Nop()),
	}
}

func (f *authFixture) register(t *testing.T, username, password string) *domain.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), ports.RegisterInput{Username: username, Password: password})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "alice1", "secret1")

	tok, err := f.svc.Login(context.Background(), "alice1", "secret1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if tok.Value == "" {
		t.Fatalf("expected token, got empty")
	}

	claims, err := f.tokens.Decode(context.Background(), tok.Value)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.Subject != "alice1" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	authorities := domain.Authorities(claims.Roles)
	if len(authorities) != 1 || authorities[0] != "ROLE_user" {
		t.Fatalf("unexpected authorities: %v", authorities)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "dave", "goodpass")

	if _, err := f.svc.Login(context.Background(), "dave", "badpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	f := newAuthFixture(t)

	if _, err := f.svc.Login(context.Background(), "ghost", "pass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_EmptyInput(t *testing.T) {
	f := newAuthFixture(t)

	if _, err := f.svc.Login(context.Background(), "", ""); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_StoreFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.repo.err = errStoreDown

	_, err := f.svc.Login(context.Background(), "alice1", "secret1")
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if domain.IsAuthFailure(err) {
		t.Fatalf("store failure must not look like bad credentials")
	}
}

func TestAuthService_Login_TokenExpires(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "alice1", "secret1")

	tok, err := f.svc.Login(context.Background(), "alice1", "secret1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	f.clock.Advance(time.Hour + time.Second)

	if res := f.svc.Introspect(context.Background(), tok.Value); res.Active {
		t.Fatalf("expected expired token to be inactive")
	}
}

func TestAuthService_Refresh_PicksUpRoleChanges(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "erin", "secret1")

	tok, err := f.svc.Login(ctx, "erin", "secret1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	stored := f.repo.users["erin"]
	stored.Roles = domain.NewRoles(domain.RoleAdmin, domain.RoleUser)

	fresh, err := f.svc.Refresh(ctx, tok.Value)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	claims, err := f.tokens.Decode(ctx, fresh.Value)
	if err != nil {
		t.Fatalf("refreshed token invalid: %v", err)
	}
	if !claims.Roles.Has(domain.RoleAdmin) {
		t.Fatalf("expected admin role after refresh, got %v", claims.Roles)
	}
	if res := f.svc.Introspect(ctx, tok.Value); res.Active {
		t.Fatalf("expected rotated token to be inactive")
	}
}

func TestAuthService_Refresh_DeletedUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "frank", "secret1")

	tok, err := f.svc.Login(ctx, "frank", "secret1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	delete(f.repo.users, "frank")

	if _, err := f.svc.Refresh(ctx, tok.Value); err != domain.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "gina", "secret1")

	tok, err := f.svc.Login(ctx, "gina", "secret1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if err := f.svc.Logout(ctx, tok.Value); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := f.tokens.Decode(ctx, tok.Value); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}
	if err := f.svc.Logout(ctx, tok.Value); err != nil {
		t.Fatalf("second logout should succeed, got %v", err)
	}
}

func TestAuthService_Logout_Garbage(t *testing.T) {
	f := newAuthFixture(t)

	if err := f.svc.Logout(context.Background(), "garbage"); !domain.IsAuthFailure(err) {
		t.Fatalf("expected auth failure, got %v", err)
	}
}

// countingHasher records Verify calls made through a real bcrypt hasher.
type countingHasher struct {
	*BcryptHasher
	verified []string
}

func (h *countingHasher) Verify(plaintext, hash string) bool {
	h.verified = append(h.verified, hash)
	return h.BcryptHasher.Verify(plaintext, hash)
}

func TestAuthService_Login_UnknownUserStillComparesHash(t *testing.T) {
	repo := newStubUserRepo()
	hasher := &countingHasher{BcryptHasher: NewBcryptHasher(bcrypt.MinCost)}
	tokens, _, _ := newTestTokenService(t)
	svc := NewAuthService(repo, hasher, tokens, zerolog.Nop())

	_, err := svc.Login(context.Background(), "ghost1", "secret1")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(hasher.verified) != 1 {
		t.Fatalf("expected one hash comparison for an unknown user, got %d", len(hasher.verified))
	}
	if cost, err := bcrypt.Cost([]byte(hasher.verified[0])); err != nil || cost != bcrypt.MinCost {
		t.Fatalf("expected a real hash at the configured cost, got cost %d err %v", cost, err)
	}
}

func TestAuthService_Login_BothFailuresCompareOnce(t *testing.T) {
	repo := newStubUserRepo()
	hasher := &countingHasher{BcryptHasher: NewBcryptHasher(bcrypt.MinCost)}
	tokens, _, _ := newTestTokenService(t)
	svc := NewAuthService(repo, hasher, tokens, zerolog.Nop())
	users := NewUserService(repo, hasher, zerolog.Nop())
	if _, err := users.Register(context.Background(), ports.RegisterInput{Username: "alice1", Password: "secret1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _ = svc.Login(context.Background(), "alice1", "wrong1")
	_, _ = svc.Login(context.Background(), "nobody", "wrong1")

	if len(hasher.verified) != 2 {
		t.Fatalf("expected one comparison per failed login, got %d", len(hasher.verified))
	}
}
