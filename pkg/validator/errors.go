package validator

import "strings"

// ValidationErrors represents a collection of validation errors.
type ValidationErrors struct {
	Errors []FieldError `json:"errors"`
}

// FieldError represents a single field validation error.
type FieldError struct {
	Field   string `json:"field"`           // Field name (from JSON tag)
	Tag     string `json:"tag"`             // Validation tag that failed
	Param   string `json:"param,omitempty"` // Validation parameter
	Message string `json:"message"`         // Translated message
}

// Error implements the error interface.
func (v *ValidationErrors) Error() string {
	if v == nil || len(v.Errors) == 0 {
		return ""
	}
	return "validation failed: " + strings.Join(v.Messages(), "; ")
}

// First returns the first error message, or empty string if no errors.
func (v *ValidationErrors) First() string {
	if v == nil || len(v.Errors) == 0 {
		return ""
	}
	return v.Errors[0].Message
}

// Messages returns all error messages in order.
func (v *ValidationErrors) Messages() []string {
	if v == nil {
		return nil
	}
	msgs := make([]string, 0, len(v.Errors))
	for _, fe := range v.Errors {
		msgs = append(msgs, fe.Message)
	}
	return msgs
}

// ByField groups error messages by field name.
func (v *ValidationErrors) ByField() map[string][]string {
	result := make(map[string][]string)
	if v == nil {
		return result
	}
	for _, fe := range v.Errors {
		result[fe.Field] = append(result[fe.Field], fe.Message)
	}
	return result
}

// NewValidationError creates a ValidationErrors with a single error.
func NewValidationError(field, tag, message string) *ValidationErrors {
	return &ValidationErrors{
		Errors: []FieldError{{Field: field, Tag: tag, Message: message}},
	}
}
