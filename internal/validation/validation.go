package validation

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MsgTooShort     = "Too Short"
	MsgTooLong      = "Too Long"
	MsgInvalidEmail = "Invalid email"
	MsgInvalid      = "Invalid value"
)

type SignupForm struct {
	Name     string `json:"name" validate:"min=2"`
	Username string `json:"username" validate:"min=2"`
	Email    string `json:"email" validate:"email"`
	Password string `json:"password" validate:"min=8"`
}

type SigninForm struct {
	Email    string `json:"email" validate:"email"`
	Password string `json:"password" validate:"min=8"`
}

// PostForm does not constrain the attached file's size or type.
type PostForm struct {
	Caption  string `json:"caption" validate:"min=5,max=2200"`
	Location string `json:"location"`
	Tags     string `json:"tags"`
}

type ProfileForm struct {
	Name     string `json:"name" validate:"min=2"`
	Username string `json:"username" validate:"min=2"`
	Email    string `json:"email" validate:"email"`
	Bio      string `json:"bio" validate:"min=5"`
}

// FieldErrors maps a form field (by its JSON name) to a display message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+fe[f])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks form against its struct tags. A failure is returned as
// FieldErrors; any other error means form was not a validatable struct.
func Validate(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fe := make(FieldErrors, len(verrs))
	for _, e := range verrs {
		if _, seen := fe[e.Field()]; seen {
			continue
		}
		fe[e.Field()] = message(e)
	}
	return fe
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "min":
		return MsgTooShort
	case "max":
		return MsgTooLong
	case "email":
		return MsgInvalidEmail
	default:
		return MsgInvalid
	}
}
