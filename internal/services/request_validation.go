package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	ConfigureValidator(v)
	return v
}

// ConfigureValidator reports fields by their JSON names and adds the notblank rule.
// It is applied to gin's binding engine too, so handler and service errors match.
func ConfigureValidator(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
}

// validateRequest checks the binding tags of a request struct
func validateRequest(req interface{}) error {
	if err := requestValidator.Struct(req); err != nil {
		return BindingError(err)
	}
	return nil
}

// BindingError turns validator failures into a *ValidationError naming the
// offending JSON fields, e.g. "customer.email". Other errors pass through.
func BindingError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fieldPath(fe.Namespace()))
	}
	return newValidationError(ruleMessage(fieldErrs[0].Tag()), fields...)
}

// fieldPath drops the struct name heading a namespace
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func ruleMessage(tag string) string {
	switch tag {
	case "required", "notblank":
		return "Missing required fields"
	case "email":
		return "Invalid email address"
	case "gt":
		return "Value must be positive"
	case "oneof":
		return "Unsupported value"
	default:
		return "Invalid request"
	}
}
