package serverutils

import (
	"fmt"
	"strings"

	"rag-assistant-be/internal/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest checks struct tags on a request DTO and converts the
// first violation into a ValidationError the error middleware maps to 400.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	first := validationErrors[0]
	field := strings.ToLower(first.Field())
	switch first.Tag() {
	case "required":
		return apperror.NewValidationError(field, fmt.Sprintf("%s is required", field))
	default:
		return apperror.NewValidationError(field,
			fmt.Sprintf("%s failed validation rule %s", field, first.Tag()))
	}
}
