package webserver

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator adapts go-playground/validator to echo.Validator. Field names
// in errors are the JSON names.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// ValidationMessages converts validator errors into field -> messages,
// the shape Laravel clients expect. It returns nil for other errors.
func ValidationMessages(err error) map[string][]string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = append(out[fe.Field()], message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return "The " + field + " field is required."
	case "email":
		return "The " + field + " must be a valid email address."
	case "max":
		if fe.Kind() == reflect.String {
			return "The " + field + " must not be greater than " + fe.Param() + " characters."
		}
		return "The " + field + " must not be greater than " + fe.Param() + "."
	case "min":
		if fe.Kind() == reflect.String {
			return "The " + field + " must be at least " + fe.Param() + " characters."
		}
		return "The " + field + " must be at least " + fe.Param() + "."
	case "gte":
		return "The " + field + " must be at least " + fe.Param() + "."
	case "gt":
		return "The " + field + " must be greater than " + fe.Param() + "."
	case "oneof":
		return "The selected " + field + " is invalid."
	default:
		return "The " + field + " is invalid."
	}
}
