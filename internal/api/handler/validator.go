package handler

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/apicrud/user-api/internal/core/domain"
)

// usernamePattern allows letters, digits and @/./+/-/_ characters.
var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
// Field errors are keyed by the request's JSON field names.
func NewValidator() *echoValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface. Failures are returned as
// *domain.ValidationError.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			out := domain.NewValidationError()
			for _, fe := range ve {
				out.Add(fe.Field(), fieldError(fe))
			}
			return out
		}
		return err
	}
	return nil
}

// fieldError converts a single FieldError into a client-facing message.
func fieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return domain.MsgRequired
	case "notblank":
		return "This field may not be blank."
	case "email":
		return domain.MsgInvalidEmail
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "username":
		return domain.MsgInvalidUsername
	default:
		return fmt.Sprintf("Invalid value (%s).", fe.Tag())
	}
}
