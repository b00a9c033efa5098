package model

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var reItemID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.\-]{0,63}$`)

// RegisterValidations adds the item_id and date_key tags used by model and request structs.
func RegisterValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("item_id", func(fl validator.FieldLevel) bool {
		return reItemID.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("date_key", func(fl validator.FieldLevel) bool {
		_, err := ParseDateKey(fl.Field().String())
		return err == nil
	})
}

// NewValidator returns a validator with the custom tags registered and json field names
// in error output.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	if err := RegisterValidations(v); err != nil {
		panic(fmt.Sprintf("register validations: %v", err))
	}
	return v
}

func ValidItemID(id string) bool {
	return reItemID.MatchString(id)
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
}

// Details renders the errors as a field -> message map for API responses.
func (v ValidationErrors) Details() map[string]any {
	out := make(map[string]any, len(v))
	for _, e := range v {
		out[e.Field] = e.Message
	}
	return out
}

// TranslateValidationErrors turns validator output into ValidationErrors; other errors pass through.
func TranslateValidationErrors(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(validationErrs))
	for _, fe := range validationErrs {
		out = append(out, ValidationError{Field: fe.Field(), Message: messageFor(fe)})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "item_id":
		return "must be 1-64 letters, digits, '.', '_' or '-'"
	case "date_key":
		return "must be YYYY-MM-DD or YYYY-MM-DD_YYYY-MM-DD"
	default:
		return "failed on " + fe.Tag()
	}
}
