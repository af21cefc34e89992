package handler

import (
	"time"

	"github.com/99minutos/user-auth-service/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

// --- Users ---

type registerRequest struct {
	Username  string `json:"username"  validate:"required,min=4,max=64"`
	Password  string `json:"password"  validate:"required,min=6,bcryptmax"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName"  validate:"max=100"`
	DOB       string `json:"dob"       validate:"omitempty,datetime=2006-01-02"`
}

type updateUserRequest struct {
	Password  *string   `json:"password"  validate:"omitempty,min=6,bcryptmax"`
	FirstName *string   `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string   `json:"lastName"  validate:"omitempty,max=100"`
	DOB       *string   `json:"dob"       validate:"omitempty,datetime=2006-01-02"`
	Roles     *[]string `json:"roles"     validate:"omitempty,dive,required,alphanum,max=32"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	DOB       string    `json:"dob,omitempty"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserResponse(u *domain.User) userResponse {
	resp := userResponse{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Roles:     []string(u.Roles),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if resp.Roles == nil {
		resp.Roles = []string{}
	}
	if u.DOB != nil {
		resp.DOB = u.DOB.Format(domain.DateLayout)
	}
	return resp
}

// --- Auth ---

type tokenRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token         string    `json:"token"`
	Authenticated bool      `json:"authenticated"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// tokenOnlyRequest is the body of introspect, refresh and logout.
type tokenOnlyRequest struct {
	Token string `json:"token" validate:"required"`
}

type introspectResponse struct {
	Active    bool       `json:"active"`
	Subject   string     `json:"sub,omitempty"`
	Scope     string     `json:"scope,omitempty"`
	TokenID   string     `json:"jti,omitempty"`
	IssuedAt  *time.Time `json:"iat,omitempty"`
	ExpiresAt *time.Time `json:"exp,omitempty"`
}
