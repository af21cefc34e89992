package domain

import (
	"errors"
	"strings"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("access forbidden")
)

// Token failures. All of them are authentication failures from the caller's
// point of view; IsAuthFailure groups them.
var (
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenRevoked          = errors.New("token revoked")
)

// Validation codes reported per field.
const (
	CodeUsernameInvalid = "USERNAME_INVALID"
	CodePasswordInvalid = "INVALID_PASSWORD"
	CodeDOBInvalid      = "INVALID_DOB"
	CodeFieldInvalid    = "INVALID_FIELD"
)

// FieldError names an offending input field and the reason code.
type FieldError struct {
	Field string `json:"field"`
	Code  string `json:"code"`
}

// ValidationError is returned when user input fails field constraints.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	codes := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		codes = append(codes, f.Field+": "+f.Code)
	}
	return "validation failed: " + strings.Join(codes, "; ")
}

// IsAuthFailure reports whether err should surface as a generic 401.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrTokenInvalidSignature) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenRevoked)
}
