// Package validation checks request inputs with struct tags and reports the
// first violated rule as an apperr.Validation error.
package validation

import (
	"errors"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/emilythestrangee/aurora/backend/internal/apperr"
)

// Messages maps "Field.tag" to the text shown when that rule fails.
// A bare "Field" entry is used for any tag on that field without its own entry.
type Messages map[string]string

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	_ = validate.RegisterValidation("nodigitfirst", noDigitFirst)
}

// noDigitFirst fails when the string starts with an ASCII or Unicode digit.
func noDigitFirst(fl validator.FieldLevel) bool {
	r, _ := utf8.DecodeRuneInString(fl.Field().String())
	return !unicode.IsDigit(r)
}

// Check validates v and returns the message for the first failing rule.
// Fields are checked in declaration order and stop at their first failing
// tag, so the order of fields and tags is the order rules are reported in.
func Check(v any, messages Messages) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Wrap(err)
	}

	first := verrs[0]
	if msg, ok := messages[first.StructField()+"."+first.Tag()]; ok {
		return apperr.Invalid(msg)
	}
	if msg, ok := messages[first.StructField()]; ok {
		return apperr.Invalid(msg)
	}
	return apperr.Invalid(first.Error())
}

// Var validates a single value against tag and returns message when it fails.
func Var(value any, tag, message string) error {
	if err := validate.Var(value, tag); err != nil {
		return apperr.Invalid(message)
	}
	return nil
}
