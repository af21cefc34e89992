package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/user-auth-service/internal/api/metrics"
	"github.com/99minutos/user-auth-service/internal/core/domain"
)

// RequireAuthority lets the request through when the principal holds any of
// the given authorities. It must run after AccessControl.
func RequireAuthority(m *metrics.Metrics, authorities ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return domain.ErrUnauthenticated
			}
			for _, a := range authorities {
				if p.HasAuthority(a) {
					return next(c)
				}
			}
			m.AccessDenied.WithLabelValues("forbidden").Inc()
			return domain.ErrForbidden
		}
	}
}

// RequireRole is RequireAuthority for a single role name.
func RequireRole(m *metrics.Metrics, role string) echo.MiddlewareFunc {
	return RequireAuthority(m, domain.AuthorityPrefix+role)
}
