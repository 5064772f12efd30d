package nativecheckout

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// Validate ensures the approval payload carries the identifiers the
// application callback needs.
func (e ApprovalEvent) Validate() error {
	if err := validate.Struct(e); err != nil {
		return normalizeValidationError(err)
	}
	return nil
}

// Validate ensures the props reply is complete before it goes on the wire.
func (p SessionProps) Validate() error {
	if err := validate.Struct(p); err != nil {
		return normalizeValidationError(err)
	}
	return nil
}

// Validate ensures an error event actually carries a message.
func (e ErrorEvent) Validate() error {
	if err := validate.Struct(e); err != nil {
		return normalizeValidationError(err)
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.Split(field.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	if err := v.RegisterValidation("socket_url", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		u, err := url.Parse(value)
		if err != nil {
			return false
		}
		return u.Scheme == "ws" || u.Scheme == "wss"
	}); err != nil {
		panic(err)
	}

	return v
}

func normalizeValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	first := validationErrs[0]
	fieldPath := jsonPath(first)
	return NewInvalidMessageError(
		fmt.Sprintf("%s %s", fieldPath, validationMessage(first)),
		WithOffendingParam(fieldPath),
	)
}

func jsonPath(fe validator.FieldError) string {
	path := fe.Namespace()
	if idx := strings.Index(path, "."); idx >= 0 {
		path = path[idx+1:]
	}
	if path == "" {
		return fe.Field()
	}
	return path
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "socket_url":
		return "must be a ws:// or wss:// URL"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
