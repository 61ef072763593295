// Package forms validates submitted forms. Rules live in `validate` struct
// tags and the user-facing message for a field in its `msg` tag.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Errors maps a JSON field name to the message shown next to it.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + e[f]
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks form and returns Errors when any field fails. The first
// failing rule of a field decides its message.
func Validate(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating form: %w", err)
	}

	t := reflect.TypeOf(form)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	out := make(Errors, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if _, seen := out[name]; seen {
			continue
		}
		out[name] = message(t, fe)
	}
	return out
}

func message(t reflect.Type, fe validator.FieldError) string {
	// StructNamespace is "Type.Embedded.Field"; walk it to reach the tag.
	path := strings.Split(fe.StructNamespace(), ".")
	if len(path) > 1 {
		path = path[1:]
	}
	cur := t
	var field reflect.StructField
	for _, p := range path {
		f, ok := cur.FieldByName(p)
		if !ok {
			return fallback(fe)
		}
		field = f
		cur = f.Type
	}
	if msg := field.Tag.Get("msg"); msg != "" {
		return msg
	}
	return fallback(fe)
}

func fallback(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Please enter a valid email address"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "oneof":
		return "Please select a valid option"
	}
	return "Invalid value"
}
