package utils

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	Validate *validator.Validate

	usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)
	slugRegex     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

func InitValidator() {
	Validate = NewValidator()
}

func NewValidator() *validator.Validate {
	v := validator.New()

	// report json field names so error maps match request bodies
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRegex.MatchString(fl.Field().String())
	})

	return v
}

// ValidationMessages flattens validator errors into a field to message map.
func ValidationMessages(err error) map[string]string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}

	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[fe.Field()] = validationMessage(fe)
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "max":
		return "ensure this field has no more than " + fe.Param() + " characters"
	case "min":
		return "ensure this field has at least " + fe.Param() + " characters"
	case "len":
		return "ensure this field has exactly " + fe.Param() + " characters"
	case "hexcolor":
		return "enter a valid hex color"
	case "slug":
		return "enter a valid slug consisting of letters, numbers, underscores or hyphens"
	case "username":
		return "enter a valid username; it may contain only letters, numbers and @/./+/-/_ characters"
	default:
		return "invalid value"
	}
}
