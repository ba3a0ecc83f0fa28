package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "fintrack/internal/errors"
)

// validationError converts validator failures into an INVALID_INPUT AppError
// naming the first offending field. field overrides the reported name, which
// validate.Var leaves empty.
func validationError(err error, field string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	fe := verrs[0]
	name := strings.ToLower(fe.Field())
	switch {
	case name == "":
		name = field
	case strings.HasPrefix(name, "["):
		name = field + name
	}
	return apperrors.WithMessage(apperrors.ErrInvalidInput, describe(name, fe))
}

func describe(field string, fe validator.FieldError) string {

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		if fe.Kind().String() == "slice" {
			return fmt.Sprintf("%s accepts at most %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "transaction_type":
		return "type must be income or expense"
	case "category_type":
		return "type must be income, expense, or both"
	case "notfuture":
		return fmt.Sprintf("%s must not be in the future", field)
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

// normalizeName trims and lowercases a category name or category reference.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
