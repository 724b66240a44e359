package provider

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mstgnz/posgate/infra/config"
)

// ValidateConfigFields validates credentials against the adapter's field definitions
func ValidateConfigFields(providerName string, creds Credentials, requiredFields []ConfigField) error {
	for _, field := range requiredFields {
		value, exists := creds[field.Key]
		if !field.Required && (!exists || value == "") {
			continue
		}

		if !exists {
			return &ConfigurationError{Provider: providerName, Field: field.Key, Reason: "is missing"}
		}

		if strings.TrimSpace(value) == "" {
			return &ConfigurationError{Provider: providerName, Field: field.Key, Reason: "cannot be empty"}
		}

		if err := validateFieldPattern(providerName, field, value); err != nil {
			return err
		}

		if err := validateFieldLength(providerName, field, value); err != nil {
			return err
		}
	}

	return nil
}

// validateFieldPattern validates field against regex pattern
func validateFieldPattern(providerName string, field ConfigField, value string) error {
	if field.Pattern == "" {
		return nil
	}

	matched, err := regexp.MatchString(field.Pattern, value)
	if err != nil {
		return &ConfigurationError{Provider: providerName, Field: field.Key, Reason: fmt.Sprintf("has an invalid pattern: %v", err)}
	}

	if !matched {
		return &ConfigurationError{Provider: providerName, Field: field.Key, Reason: "does not match required pattern"}
	}

	return nil
}

// validateFieldLength validates field length constraints
func validateFieldLength(providerName string, field ConfigField, value string) error {
	if field.MinLength > 0 && len(value) < field.MinLength {
		return &ConfigurationError{Provider: providerName, Field: field.Key, Reason: fmt.Sprintf("must be at least %d characters", field.MinLength)}
	}

	if field.MaxLength > 0 && len(value) > field.MaxLength {
		return &ConfigurationError{Provider: providerName, Field: field.Key, Reason: fmt.Sprintf("must not exceed %d characters", field.MaxLength)}
	}

	return nil
}

// ValidateIntent checks intent invariants and returns a *ValidationError
// listing every offending field.
func ValidateIntent(intent PaymentIntent) error {
	err := config.App().Validator.Struct(intent)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Fields: []FieldError{{Field: "intent", Reason: err.Error()}}}
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:  fieldPath(fe.Namespace()),
			Reason: reasonFor(fe),
		})
	}
	return &ValidationError{Fields: fields}
}

// RequireCard reports a *ValidationError when the provider needs card data
// the intent does not carry.
func RequireCard(intent PaymentIntent) error {
	if intent.Card == nil {
		return &ValidationError{Fields: []FieldError{{Field: "card", Reason: "is required"}}}
	}
	return nil
}

// fieldPath turns "PaymentIntent.card.cvv" into "card.cvv".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "len":
		return "must be " + fe.Param() + " characters"
	case "url":
		return "must be a valid URL"
	case "email":
		return "must be a valid email"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
