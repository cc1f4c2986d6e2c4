package wizard

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	guidPattern       = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	identifierPattern = regexp.MustCompile(`^[a-zA-Z_][0-9a-zA-Z_$]{0,127}$`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	mustRegisterPattern(v, "guid", guidPattern)
	mustRegisterPattern(v, "identifier", identifierPattern)
	return v
}

func mustRegisterPattern(v *validator.Validate, tag string, pattern *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("wizard: register %q validation: %v", tag, err))
	}
}

// FieldErrors maps a form field name to the message shown next to it.
type FieldErrors map[string]string

func (f FieldErrors) Add(field, message string) FieldErrors {
	if f == nil {
		f = FieldErrors{}
	}
	if _, ok := f[field]; !ok {
		f[field] = message
	}
	return f
}

func (f FieldErrors) Get(field string) string {
	return f[field]
}

func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

// Fields lists the fields with errors in a stable order.
func (f FieldErrors) Fields() []string {
	out := make([]string, 0, len(f))
	for k := range f {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Validate checks v against its validate tags. Field names come from the
// form tag so they match the rendered inputs.
func Validate(v any) FieldErrors {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"": err.Error()}
	}
	var out FieldErrors
	for _, fe := range verrs {
		out = out.Add(fe.Field(), message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "guid":
		return "Enter a valid GUID, for example 00000000-0000-0000-0000-000000000000."
	case "identifier":
		return "Start with a letter or underscore and use only letters, numbers, underscores or $."
	case "max":
		return fmt.Sprintf("Use at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Use at least %s characters.", fe.Param())
	case "lowercase", "alphanum":
		return "Use lowercase letters and numbers only."
	case "oneof":
		return fmt.Sprintf("Choose one of: %s.", fe.Param())
	default:
		return "This value is invalid."
	}
}
