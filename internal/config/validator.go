package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/remobj/remobj-go/internal/policy"
	"github.com/remobj/remobj-go/internal/wire"
)

// RegisterCustomValidators registers remobj-specific validation rules.
// Must be called before validating a Config.
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("remobj_propertypath", validatePropertyPath); err != nil {
		return fmt.Errorf("failed to register remobj_propertypath validator: %w", err)
	}
	return nil
}

// validatePropertyPath validates a slash-joined property path has no empty
// segments (e.g. rejects "a//b", "/a", "a/").
func validatePropertyPath(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	if path == "" {
		return false
	}
	for _, seg := range wire.SplitPath(path) {
		if seg == "" {
			return false
		}
	}
	return true
}

// Validate validates the Config using struct tags and custom cross-field rules.
// Returns an error if validation fails, with actionable error messages.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if err := c.validatePolicyCompiles(); err != nil {
		return err
	}

	return nil
}

// validatePolicyCompiles ensures Provider.Policy, if set, is a compilable CEL
// expression — a bad expression should fail at config-validation time, not
// on the first dispatched request.
func (c *Config) validatePolicyCompiles() error {
	if c.Provider.Policy == "" {
		return nil
	}
	if _, err := policy.New(c.Provider.Policy); err != nil {
		return fmt.Errorf("provider.policy: %w", err)
	}
	return nil
}

// formatValidationErrors converts validator.ValidationErrors to user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			msg := formatSingleValidationError(e)
			messages = append(messages, msg)
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

// formatSingleValidationError creates a user-friendly message for a single validation error.
func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	case "remobj_propertypath":
		return fmt.Sprintf("%s must be a non-empty slash-separated property path", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}
