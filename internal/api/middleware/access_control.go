package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/user-auth-service/internal/api/metrics"
	"github.com/99minutos/user-auth-service/internal/core/domain"
	"github.com/99minutos/user-auth-service/internal/core/ports"
)

const principalKey = "principal"

// Route is a method and path pair. A path ending in "/*" matches every path
// below that prefix.
type Route struct {
	Method string
	Path   string
}

// DefaultPublicRoutes are reachable without a bearer token. Any other method
// on the same paths still requires authentication.
var DefaultPublicRoutes = []Route{
	{Method: http.MethodPost, Path: "/users"},
	{Method: http.MethodPost, Path: "/auth/token"},
	{Method: http.MethodPost, Path: "/auth/introspect"},
	{Method: http.MethodPost, Path: "/auth/logout"},
	{Method: http.MethodPost, Path: "/auth/refresh"},
	{Method: http.MethodGet, Path: "/health"},
	{Method: http.MethodGet, Path: "/health/ready"},
	{Method: http.MethodGet, Path: "/metrics"},
	{Method: http.MethodGet, Path: "/swagger/*"},
}

type AccessControlConfig struct {
	PublicRoutes []Route
	Tokens       ports.TokenService
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
}

// AccessControl lets public routes through and requires a valid bearer token
// everywhere else. On success the principal is attached to the context with
// each role mapped to a ROLE_ authority.
func AccessControl(cfg AccessControlConfig) echo.MiddlewareFunc {
	public := newRouteSet(cfg.PublicRoutes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if public.matches(req.Method, req.URL.Path) {
				return next(c)
			}

			raw, ok := bearerToken(req.Header.Get(echo.HeaderAuthorization))
			if !ok {
				cfg.Metrics.AccessDenied.WithLabelValues("missing_token").Inc()
				return domain.ErrUnauthenticated
			}

			claims, err := cfg.Tokens.Decode(req.Context(), raw)
			if err != nil {
				if domain.IsAuthFailure(err) {
					cfg.Metrics.AccessDenied.WithLabelValues(denyReason(err)).Inc()
					cfg.Logger.Debug().Err(err).Str("path", req.URL.Path).Msg("bearer token rejected")
				}
				return err
			}

			SetPrincipal(c, domain.Principal{
				Subject:     claims.Subject,
				Authorities: domain.Authorities(claims.Roles),
				TokenID:     claims.ID,
				ExpiresAt:   claims.ExpiresAt,
			})
			return next(c)
		}
	}
}

// SetPrincipal attaches p to the request context.
func SetPrincipal(c echo.Context, p domain.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the principal attached by AccessControl.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(principalKey).(domain.Principal)
	return p, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func denyReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenRevoked):
		return "revoked"
	default:
		return "invalid_token"
	}
}

type routeSet struct {
	exact    map[Route]struct{}
	prefixes []Route
}

func newRouteSet(routes []Route) routeSet {
	rs := routeSet{exact: make(map[Route]struct{}, len(routes))}
	for _, r := range routes {
		if prefix, ok := strings.CutSuffix(r.Path, "*"); ok {
			rs.prefixes = append(rs.prefixes, Route{Method: r.Method, Path: prefix})
			continue
		}
		rs.exact[r] = struct{}{}
	}
	return rs
}

func (rs routeSet) matches(method, path string) bool {
	if _, ok := rs.exact[Route{Method: method, Path: path}]; ok {
		return true
	}
	for _, p := range rs.prefixes {
		if p.Method == method && strings.HasPrefix(path, p.Path) {
			return true
		}
	}
	return false
}
