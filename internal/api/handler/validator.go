package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/99minutos/user-auth-service/internal/core/domain"
)

// fieldCodes maps a JSON field name to the code reported when it fails.
var fieldCodes = map[string]string{
	"username": domain.CodeUsernameInvalid,
	"password": domain.CodePasswordInvalid,
	"dob":      domain.CodeDOBInvalid,
}

// maxPasswordBytes is the most bcrypt will hash. The limit is in bytes, so a
// multibyte password hits it with fewer characters.
const maxPasswordBytes = 72

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
// Field names are reported by their JSON tag.
func NewValidator() *echoValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("bcryptmax", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	}); err != nil {
		panic(err)
	}
	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface. Constraint failures are
// returned as *domain.ValidationError.
func (ev *echoValidator) Validate(i any) error {
	err := ev.v.Struct(i)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	out := &domain.ValidationError{Fields: make([]domain.FieldError, 0, len(ve))}
	seen := make(map[string]bool, len(ve))
	for _, fe := range ve {
		field := fieldName(fe)
		if seen[field] {
			continue
		}
		seen[field] = true
		out.Fields = append(out.Fields, domain.FieldError{Field: field, Code: fieldCode(field)})
	}
	return out
}

// fieldName strips the struct prefix and any slice index, so roles[2] is
// reported as roles.
func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return name
}

func fieldCode(field string) string {
	if code, ok := fieldCodes[field]; ok {
		return code
	}
	return domain.CodeFieldInvalid
}

// invalidField builds a single-field validation error for checks that run
// after struct validation, such as date parsing.
func invalidField(field string) error {
	return &domain.ValidationError{Fields: []domain.FieldError{{Field: field, Code: fieldCode(field)}}}
}
