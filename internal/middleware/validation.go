package middleware

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"sentinel/internal/models"
)

var (
	validate     = validator.New(validator.WithRequiredStructEnabled())
	controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
)

// ErrPortRange is returned for port numbers outside 1..65535.
var ErrPortRange = fmt.Errorf("Port must be between %d and %d", models.MinPort, models.MaxPort)

// SanitizeString removes control characters except newlines and tabs, then
// trims surrounding whitespace.
func SanitizeString(input string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(input, ""))
}

// ValidatePort parses a decimal port and checks its range.
func ValidatePort(portStr string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(portStr))
	if err != nil {
		return 0, fmt.Errorf("Port must be a number: %w", err)
	}
	if !models.PortInRange(port) {
		return 0, ErrPortRange
	}
	return port, nil
}

// ValidateStruct runs the validate tags on v and returns one message per
// failing field, keyed by the JSON field name.
func ValidateStruct(v any) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return map[string]string{"_": err.Error()}
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[jsonName(fe.Field())] = fieldMessage(fe)
	}
	return details
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		if fe.Field() == "Port" {
			return ErrPortRange.Error()
		}
		return "Must be at least " + fe.Param() + " characters"
	case "max":
		if fe.Field() == "Port" {
			return ErrPortRange.Error()
		}
		return "Must be at most " + fe.Param() + " characters"
	default:
		return "Invalid value"
	}
}

func jsonName(field string) string {
	switch field {
	case "IP":
		return "ip"
	case "FullName":
		return "full_name"
	}
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
