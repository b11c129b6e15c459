package articles

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator and reports errors keyed by
// JSON field path, for example "categories.0.name".
type Validator struct {
	validator *validator.Validate
}

// NewValidator creates a validator that names fields by their JSON tags.
func NewValidator() *Validator {
	validate := validator.New()

	// Use JSON field names for validation error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{
		validator: validate,
	}
}

// Validate validates a struct. Rule violations are returned as a
// *ValidationError.
func (v *Validator) Validate(i any) error {
	err := v.validator.Struct(i)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		return NewValidationError(errs)
	}
	return err
}

// ValidationError carries per-field messages. Each field may have several.
type ValidationError struct {
	Errors map[string][]string `json:"errors"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var messages []string
	for _, field := range fields {
		messages = append(messages, fmt.Sprintf("%s: %s", field, strings.Join(e.Errors[field], "; ")))
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, ", "))
}

// Add appends a message for field.
func (e *ValidationError) Add(field, message string) {
	if e.Errors == nil {
		e.Errors = make(map[string][]string)
	}
	e.Errors[field] = append(e.Errors[field], message)
}

// HasErrors reports whether any message was added.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// NewValidationError creates a ValidationError from validator.ValidationErrors
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	verr := &ValidationError{Errors: make(map[string][]string)}

	for _, err := range errs {
		field := fieldPath(err.Namespace())

		switch err.Tag() {
		case "required":
			verr.Add(field, fmt.Sprintf("The %s field is required.", field))
		case "max":
			verr.Add(field, fmt.Sprintf("The %s field must not be greater than %s characters.", field, err.Param()))
		case "min":
			verr.Add(field, fmt.Sprintf("The %s field must be at least %s.", field, err.Param()))
		case "gt":
			verr.Add(field, fmt.Sprintf("The %s field must be greater than %s.", field, err.Param()))
		case "url", "http_url":
			verr.Add(field, fmt.Sprintf("The %s field must be a valid URL.", field))
		default:
			verr.Add(field, fmt.Sprintf("The %s field is invalid.", field))
		}
	}

	return verr
}

var indexPattern = regexp.MustCompile(`\[(\d+)\]`)

// fieldPath converts a validator namespace such as
// "UpdateArticleRequest.categories[0].name" to "categories.0.name".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	return indexPattern.ReplaceAllString(namespace, ".$1")
}
