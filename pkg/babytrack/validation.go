package babytrack

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// checkStruct runs struct-tag validation and converts the first
// failure into a *ValidationError. Validation happens before any
// persistence write.
func checkStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	if fieldErrors, ok := err.(validator.ValidationErrors); ok && len(fieldErrors) > 0 {
		fe := fieldErrors[0]
		return &ValidationError{
			Field:  strings.ToLower(fe.Field()),
			Reason: reasonForTag(fe),
		}
	}
	return err
}

// reasonForTag renders a validator tag failure as a human-readable
// reason.
func reasonForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "gte":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "email":
		return "must be a valid email"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
