package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/99minutos/user-auth-service/internal/api/metrics"
	"github.com/99minutos/user-auth-service/internal/core/domain"
	"github.com/99minutos/user-auth-service/internal/core/ports"
)

type stubAuthService struct {
	loginFn      func(ctx context.Context, username, password string) (domain.Token, error)
	introspectFn func(ctx context.Context, token string) domain.Introspection
	refreshFn    func(ctx context.Context, token string) (domain.Token, error)
	logoutFn     func(ctx context.Context, token string) error
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (domain.Token, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) Introspect(ctx context.Context, token string) domain.Introspection {
	return s.introspectFn(ctx, token)
}

func (s *stubAuthService) Refresh(ctx context.Context, token string) (domain.Token, error) {
	return s.refreshFn(ctx, token)
}

func (s *stubAuthService) Logout(ctx context.Context, token string) error {
	return s.logoutFn(ctx, token)
}

type stubUserService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	meFn       func(ctx context.Context, actor domain.Principal) (*domain.User, error)
	getFn      func(ctx context.Context, actor domain.Principal, id string) (*domain.User, error)
	listFn     func(ctx context.Context) ([]*domain.User, error)
	updateFn   func(ctx context.Context, actor domain.Principal, id string, in ports.UpdateUserInput) (*domain.User, error)
}

func (s *stubUserService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubUserService) Me(ctx context.Context, actor domain.Principal) (*domain.User, error) {
	return s.meFn(ctx, actor)
}

func (s *stubUserService) Get(ctx context.Context, actor domain.Principal, id string) (*domain.User, error) {
	return s.getFn(ctx, actor, id)
}

func (s *stubUserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.listFn(ctx)
}

func (s *stubUserService) Update(ctx context.Context, actor domain.Principal, id string, in ports.UpdateUserInput) (*domain.User, error) {
	return s.updateFn(ctx, actor, id, in)
}

func (s *stubUserService) EnsureAdmin(context.Context, string, string) error { return nil }

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

// newJSONContext builds an echo context for a JSON request with the
// validator installed.
func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}
