package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/user-auth-service/internal/api/metrics"
	"github.com/99minutos/user-auth-service/internal/core/domain"
	"github.com/99minutos/user-auth-service/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	metrics     *metrics.Metrics
}

func NewAuthHandler(authService ports.AuthService, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{authService: authService, metrics: m}
}

// Token authenticates a user and returns a bearer token.
//
// @Summary      Obtain a token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      tokenRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/token [post]
func (h *AuthHandler) Token(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			h.metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
		} else {
			h.metrics.LoginAttempts.WithLabelValues("error").Inc()
		}
		return err
	}

	h.metrics.LoginAttempts.WithLabelValues("success").Inc()
	h.metrics.TokensIssued.WithLabelValues("login").Inc()
	return c.JSON(http.StatusOK, tokenResponse{
		Token:         token.Value,
		Authenticated: true,
		ExpiresAt:     token.ExpiresAt,
	})
}

// Introspect reports whether a token is currently usable. It never fails on a
// bad token; the answer is simply inactive.
//
// @Summary      Introspect a token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      tokenOnlyRequest  true  "Token to inspect"
// @Success      200   {object}  introspectResponse
// @Failure      400   {object}  errorResponse
// @Router       /auth/introspect [post]
func (h *AuthHandler) Introspect(c echo.Context) error {
	var req tokenOnlyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res := h.authService.Introspect(c.Request().Context(), req.Token)
	if !res.Active || res.Claims == nil {
		return c.JSON(http.StatusOK, introspectResponse{Active: false})
	}

	iat, exp := res.Claims.IssuedAt, res.Claims.ExpiresAt
	return c.JSON(http.StatusOK, introspectResponse{
		Active:    true,
		Subject:   res.Claims.Subject,
		Scope:     res.Claims.Roles.String(),
		TokenID:   res.Claims.ID,
		IssuedAt:  &iat,
		ExpiresAt: &exp,
	})
}

// Refresh exchanges a token inside its refresh window for a new one.
//
// @Summary      Refresh a token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      tokenOnlyRequest  true  "Token to rotate"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req tokenOnlyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, err := h.authService.Refresh(c.Request().Context(), req.Token)
	if err != nil {
		return err
	}

	h.metrics.TokensIssued.WithLabelValues("refresh").Inc()
	return c.JSON(http.StatusOK, tokenResponse{
		Token:         token.Value,
		Authenticated: true,
		ExpiresAt:     token.ExpiresAt,
	})
}

// Logout revokes a token.
//
// @Summary      Revoke a token
// @Tags         auth
// @Accept       json
// @Param        body  body  tokenOnlyRequest  true  "Token to revoke"
// @Success      204
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req tokenOnlyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.authService.Logout(c.Request().Context(), req.Token); err != nil {
		return err
	}

	h.metrics.TokensRevoked.Inc()
	return c.NoContent(http.StatusNoContent)
}
