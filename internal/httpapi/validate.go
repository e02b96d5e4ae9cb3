package httpapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateStruct runs tag-based validation and returns one message per
// failing field, keyed by the lower-cased field name.
func validateStruct(payload any) map[string]string {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	fields := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fe := range validationErrors {
			name := strings.ToLower(fe.Field())
			switch fe.Tag() {
			case "required":
				fields[name] = fmt.Sprintf("%s is required", name)
			case "min":
				fields[name] = fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
			default:
				fields[name] = fmt.Sprintf("%s is invalid", name)
			}
		}
	}
	return fields
}
