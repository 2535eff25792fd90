// Package validate holds the input rules shared by the client flows and the
// mock API. On the client a failing check never reaches the network.
package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	otpPattern   = regexp.MustCompile(`^\d{6}$`)
)

// FieldErrors maps JSON field names to validation messages.
type FieldErrors map[string][]string

// Error is returned when a local check fails.
type Error struct {
	summary string
	fields  FieldErrors
}

func (e *Error) Error() string { return e.summary }

// Fields returns the per-field messages.
func (e *Error) Fields() FieldErrors { return e.fields }

// Validation marks the error as a local validation failure.
func (e *Error) Validation() bool { return true }

// Newf builds a validation error that is not tied to a struct field.
func Newf(format string, args ...any) *Error {
	return &Error{summary: fmt.Sprintf(format, args...), fields: FieldErrors{}}
}

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.Split(fld.Tag.Get("json"), ",")[0]
			if name == "" || name == "-" {
				return lowerFirst(fld.Name)
			}
			return name
		})
		_ = v.RegisterValidation("loose_email", matcher(emailPattern))
		_ = v.RegisterValidation("phone", matcher(phonePattern))
		_ = v.RegisterValidation("otp", matcher(otpPattern))
		instance = v
	})
	return instance
}

func matcher(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// Email reports whether s looks like an email address.
func Email(s string) bool { return emailPattern.MatchString(s) }

// Phone reports whether s is an E.164-like phone number.
func Phone(s string) bool { return phonePattern.MatchString(s) }

// OTP reports whether s is a six digit code.
func OTP(s string) bool { return otpPattern.MatchString(s) }

// Struct validates v according to its `validate` tags. Messages can be
// overridden per field with a `msg` tag; the first failing field's message
// becomes the error summary.
func Struct(v any) error {
	return wrap(v, get().Struct(v))
}

// StructExcept is Struct skipping the named fields (Go field names).
func StructExcept(v any, fields ...string) error {
	return wrap(v, get().StructExcept(v, fields...))
}

func wrap(v any, err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &Error{summary: "validation failed", fields: FieldErrors{}}
	}

	fields := make(FieldErrors)
	var first string
	for _, fe := range verrs {
		msg := messageFor(v, fe)
		if first == "" {
			first = msg
		}
		fields[fe.Field()] = append(fields[fe.Field()], msg)
	}
	return &Error{summary: first, fields: fields}
}

func messageFor(v any, fe validator.FieldError) string {
	if custom := customMessage(v, fe.StructField()); custom != "" {
		return custom
	}
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "loose_email", "email":
		return "please enter a valid email address"
	case "phone":
		return "please enter a valid phone number"
	case "otp":
		return "please enter a valid 6-digit code"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, lowerFirst(fe.Param()))
	case "eq":
		return fmt.Sprintf("%s must be %s", field, fe.Param())
	case "oneof":
		opts := strings.Fields(fe.Param())
		sort.Strings(opts)
		return fmt.Sprintf("%s must be one of %s", field, strings.Join(opts, ", "))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func customMessage(v any, structField string) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return ""
	}
	f, ok := t.FieldByName(structField)
	if !ok {
		return ""
	}
	return f.Tag.Get("msg")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = []rune(strings.ToLower(string(r[0])))[0]
	return string(r)
}
