package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps struct validation and business rule validation behind
// one handle services can share.
type Validator struct {
	validate          *validator.Validate
	businessValidator *BusinessValidator
}

// New creates a validator with all custom rules registered
func New() *Validator {
	v := &Validator{
		validate:          validator.New(),
		businessValidator: NewBusinessValidator(),
	}
	v.registerCustomRules()
	return v
}

// Validate validates a struct against its validate tags
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// GetBusinessValidator returns the business rule validator
func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.businessValidator
}

func (v *Validator) registerCustomRules() {
	registerDomainRules(v.validate)
}

// ValidationError describes a single failed validation
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation failures
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}

	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// ToValidationErrors converts go-playground validation errors to our type
func ToValidationErrors(err error) ValidationErrors {
	var result ValidationErrors

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{
			Field:   "request",
			Message: err.Error(),
			Rule:    "struct",
		}}
	}

	for _, fieldError := range validationErrors {
		result = append(result, ValidationError{
			Field:   strings.ToLower(fieldError.Field()),
			Message: messageForTag(fieldError),
			Value:   fieldError.Value(),
			Rule:    fieldError.Tag(),
		})
	}
	return result
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid UUID"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "estimate_value":
		return "must be 0 or 100"
	case "entity_name":
		return "must be between 1 and 200 characters"
	case "user_role":
		return "must be one of student, teacher, admin"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
