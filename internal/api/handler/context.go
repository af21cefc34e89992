package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/user-auth-service/internal/api/middleware"
	"github.com/99minutos/user-auth-service/internal/core/domain"
)

// ctxPrincipal extracts the principal injected by the access control
// middleware. Its absence means the route was wired without authentication,
// which is reported as an authentication failure rather than served.
func ctxPrincipal(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok || p.Subject == "" {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	return p, nil
}
