package validator

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/doctor-api/pkg/errors"
)

const DateLayout = "2006-01-02"

var hhmm = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Validator checks request structs tagged with `validate`.
type Validator interface {
	Validate(interface{}) error
	ValidateVar(field string, value interface{}, tag string) error
}

type structValidator struct {
	v   *validator.Validate
	now func() time.Time
}

func New() Validator {
	return NewWithClock(time.Now)
}

// NewWithClock lets tests pin the date used by the notpast rule.
func NewWithClock(now func() time.Time) Validator {
	sv := &structValidator{v: validator.New(), now: now}

	sv.v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = sv.v.RegisterValidation("notpast", sv.notPast)
	_ = sv.v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return hhmm.MatchString(fl.Field().String())
	})
	return sv
}

// Today returns the current UTC date truncated to midnight.
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (sv *structValidator) notPast(fl validator.FieldLevel) bool {
	var day time.Time
	switch v := fl.Field().Interface().(type) {
	case string:
		parsed, err := time.Parse(DateLayout, v)
		if err != nil {
			return false
		}
		day = parsed
	case time.Time:
		day = Today(v)
	default:
		return false
	}
	return !day.Before(Today(sv.now()))
}

func (sv *structValidator) Validate(obj interface{}) error {
	if err := sv.v.Struct(obj); err != nil {
		return translate(err)
	}
	return nil
}

func (sv *structValidator) ValidateVar(field string, value interface{}, tag string) error {
	if err := sv.v.Var(value, tag); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) && len(verrs) > 0 {
			return errors.NewValidation(message(field, verrs[0]), nil)
		}
		return errors.NewValidation(fmt.Sprintf("%s is invalid", field), err)
	}
	return nil
}

// translate turns the first failing rule into a readable ValidationError.
func translate(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return errors.NewValidation("invalid request", err)
	}
	fe := verrs[0]
	return errors.NewValidation(message(fe.Field(), fe), nil)
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s", field, fe.Param())
	case "notpast":
		return fmt.Sprintf("%s cannot be in the past", field)
	case "hhmm":
		return fmt.Sprintf("%s must be in HH:MM format", field)
	case "datetime":
		return fmt.Sprintf("%s must match %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
