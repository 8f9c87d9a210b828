package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Channels that can be independently frozen and unfrozen.
var allowedChannels = map[string]bool{
	"atm":    true,
	"online": true,
	"card":   true,
	"call":   true,
	"email":  true,
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator instance with custom tags registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("channel", func(fl validator.FieldLevel) bool {
			return allowedChannels[fl.Field().String()]
		})
	})
	return validate
}

// IsChannel reports whether s names a freezable channel.
func IsChannel(s string) bool {
	return allowedChannels[s]
}

// ValidateStruct validates a struct and returns a field-level ValidationError.
func ValidateStruct(s interface{}) error {
	if err := Validator().Struct(s); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			return NewValidationError(verrs)
		}
		return err
	}
	return nil
}

// ValidationError represents a validation error with field-level details
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	var messages []string
	for field, msg := range v.Errors {
		messages = append(messages, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(messages, "; ")
}

// NewValidationError creates a new ValidationError from validator.ValidationErrors
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	errors := make(map[string]string)

	for _, err := range errs {
		field := err.Field()
		errors[field] = getErrorMessage(err)
	}

	return &ValidationError{Errors: errors}
}

// getErrorMessage returns a human-readable error message for a validation error
func getErrorMessage(err validator.FieldError) string {
	field := err.Field()
	tag := err.Tag()
	param := err.Param()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "latitude":
		return fmt.Sprintf("%s must be a valid latitude (-90 to 90)", field)
	case "longitude":
		return fmt.Sprintf("%s must be a valid longitude (-180 to 180)", field)
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters long", field, param)
	case "channel":
		return fmt.Sprintf("%s must be a valid channel (atm, online, card, call, email)", field)
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, tag)
	}
}
