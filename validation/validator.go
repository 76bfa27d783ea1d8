package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/kbukum/blobkit/errors"
)

// MaxObjectKeyLength is the longest object key, in bytes, the storage
// services accept.
const MaxObjectKeyLength = 1024

var containerNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

// Validator collects validation errors.
type Validator struct {
	errors []FieldError
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new Validator.
func New() *Validator {
	return &Validator{
		errors: make([]FieldError, 0),
	}
}

// AddError adds a field error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Validate returns an AppError if there are validation errors, nil otherwise.
func (v *Validator) Validate() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}

	messages := make([]string, len(v.errors))
	for i, e := range v.errors {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}

	return errors.Validation(strings.Join(messages, "; ")).
		WithDetail("fields", v.errors)
}

// Required checks if a string is non-empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// ObjectKey checks that value is usable as an object key.
func (v *Validator) ObjectKey(field, value string) *Validator {
	switch {
	case value == "":
		v.AddError(field, "is required")
	case !IsObjectKey(value):
		v.AddError(field, fmt.Sprintf("must be valid UTF-8 of at most %d bytes", MaxObjectKeyLength))
	}
	return v
}

// ContainerName checks a non-empty value against the bucket naming rules.
// Empty values pass so callers can fall back to a default container.
func (v *Validator) ContainerName(field, value string) *Validator {
	if value == "" {
		return v
	}
	if !IsContainerName(value) {
		v.AddError(field, "must be 3-63 lowercase letters, digits, dots or hyphens")
	}
	return v
}

// OneOf checks if a value is one of the allowed values.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" || slices.Contains(allowed, value) {
		return v
	}
	v.AddError(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// Custom applies a custom validation condition.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}

// IsContainerName reports whether name follows the bucket naming rules.
func IsContainerName(name string) bool {
	return containerNamePattern.MatchString(name) && !strings.Contains(name, "..")
}

// IsObjectKey reports whether key is a non-empty UTF-8 key within the length limit.
func IsObjectKey(key string) bool {
	return key != "" && len(key) <= MaxObjectKeyLength && utf8.ValidString(key)
}

// Required validates a single required field and returns an error if empty.
func Required(field, value string) error {
	if appErr := New().Required(field, value).Validate(); appErr != nil {
		return appErr
	}
	return nil
}
