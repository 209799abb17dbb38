package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/cleared-dev/teller/internal/id"
	"github.com/cleared-dev/teller/internal/model"
)

// Validate is the shared struct validator with the project's custom rules.
var Validate *validator.Validate

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// ASCII digits only; "numeric" also accepts signs and decimals.
	must(Validate.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return false
		}
		for i := 0; i < len(s); i++ {
			if s[i] < '0' || s[i] > '9' {
				return false
			}
		}
		return true
	}))

	must(Validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}))

	must(Validate.RegisterValidation("denomination", func(fl validator.FieldLevel) bool {
		return model.Denomination(fl.Field().Int()).Valid()
	}))

	must(Validate.RegisterValidation("serial", func(fl validator.FieldLevel) bool {
		return id.ValidSerial(fl.Field().String())
	}))
}

func must(err error) {
	if err != nil {
		panic("registering validation: " + err.Error())
	}
}

// Struct validates s and flattens field errors into one readable error.
func Struct(s any) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fe.Namespace() + ": failed " + fe.Tag()
		if fe.Param() != "" {
			msgs[i] += "=" + fe.Param()
		}
	}
	return &Error{Fields: msgs, Err: err}
}

// Error lists every field that failed validation.
type Error struct {
	Fields []string
	Err    error
}

func (e *Error) Error() string {
	return "invalid " + strings.Join(e.Fields, "; ")
}

func (e *Error) Unwrap() error { return e.Err }
