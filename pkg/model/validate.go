package model

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is a singleton validator instance
var validate = validator.New()

// Validator returns the shared struct validator so request types in other
// packages are checked with the same instance.
func Validator() *validator.Validate {
	return validate
}

func validateEdge(edge Edge) error {
	if err := validate.Struct(edge); err != nil {
		return FormatValidationError(err)
	}
	return nil
}

// FormatValidationError turns validator errors into a single readable error.
// Only the first failing field is reported.
func FormatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return err
	}

	fe := validationErrors[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s: is required", fe.Field())
	case "gte":
		return fmt.Errorf("%s: must be at least %s", fe.Field(), fe.Param())
	default:
		return fmt.Errorf("%s: failed %q validation", fe.Field(), fe.Tag())
	}
}
