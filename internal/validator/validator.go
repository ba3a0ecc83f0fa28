// Package validator provides custom validation functions for Gin's binding
// engine and for service-level validation of normalized input.
package validator

import (
	"regexp"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var monthRegex = regexp.MustCompile(`^\d{4}-(0?[1-9]|1[0-2])$`)

// Option configures a validator built by New.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock makes the notfuture rule compare against now instead of the wall clock.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerAll(v, time.Now)
	}
}

// New returns a standalone validator with the custom validations registered.
func New(opts ...Option) *validator.Validate {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	registerAll(v, o.now)
	return v
}

func registerAll(v *validator.Validate, now func() time.Time) {
	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("category_type", validateCategoryType)
	_ = v.RegisterValidation("notfuture", notFuture(now))
	_ = v.RegisterValidation("month", validateMonth)
}

// IsMonth reports whether s is a "YYYY-MM" month; a single-digit month is accepted.
func IsMonth(s string) bool {
	return monthRegex.MatchString(s)
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validateCategoryType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense", "both":
		return true
	}
	return false
}

// notFuture accepts time.Time values that are not after now().
func notFuture(now func() time.Time) validator.Func {
	return func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		return !t.After(now())
	}
}

func validateMonth(fl validator.FieldLevel) bool {
	return IsMonth(fl.Field().String())
}
