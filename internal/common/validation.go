package common

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator collects field-level rule failures for request validation.
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// Error returns a combined error, wrapping ErrValidation
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrValidation, v.ErrorMessage())
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

// Required - Common validation rules
func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	case *string:
		if v == nil || strings.TrimSpace(*v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	}
	return nil
}

// MaxBytes rejects strings longer than max bytes.
func MaxBytes(max int) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		str, ok := value.(string)
		if !ok || len(str) <= max {
			return nil
		}
		return &ValidationError{
			Field:   fieldName,
			Value:   fmt.Sprintf("<%d bytes>", len(str)),
			Message: fmt.Sprintf("must be at most %d bytes", max),
		}
	}
}

// NonNegative rejects negative numbers.
func NonNegative(fieldName string, value interface{}) *ValidationError {
	var n float64
	switch v := value.(type) {
	case int64:
		n = float64(v)
	case float64:
		n = v
	case int:
		n = float64(v)
	default:
		return nil
	}
	if n < 0 {
		return &ValidationError{Field: fieldName, Value: value, Message: "must not be negative"}
	}
	return nil
}

// ValidateAndReturnError validates and returns InvalidArgumentError if validation fails
func ValidateAndReturnError(validator *Validator) error {
	if validator.HasErrors() {
		return InvalidArgumentError(validator.ErrorMessage())
	}
	return nil
}

var (
	structValidator     *validator.Validate
	structValidatorOnce sync.Once
)

// ValidateStruct applies the `validate` struct tags of s.
func ValidateStruct(s interface{}) error {
	structValidatorOnce.Do(func() {
		structValidator = validator.New()
	})
	err := structValidator.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	v := NewValidator()
	for _, fe := range fieldErrs {
		v.errors = append(v.errors, ValidationError{
			Field:   fe.Namespace(),
			Value:   fe.Value(),
			Message: "failed '" + fe.Tag() + "' rule",
		})
	}
	return v.Error()
}
