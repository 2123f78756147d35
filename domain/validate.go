package domain

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// NaN and ±Inf slip through numeric comparisons.
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

// Validator exposes the shared validator so outer layers use the same tags.
func Validator() *validator.Validate {
	return validate
}

// ValidateSnapshot reports every invalid snapshot field.
func ValidateSnapshot(s MemberSnapshot) error {
	if err := validate.Struct(s); err != nil {
		return NewAppError(ErrInvalidInputCode, "invalid member snapshot", toValidationErrors(err, ""))
	}
	return nil
}

// ValidateRequestedAmount checks that the amount is positive and finite.
func ValidateRequestedAmount(amount float64) error {
	if err := validate.Struct(LoanRequest{RequestedAmount: amount}); err != nil {
		return NewAppError(ErrInvalidInputCode, "invalid loan request", toValidationErrors(err, ""))
	}
	return nil
}

// ToValidationErrors converts validator output into ValidationErrors,
// prefixing field names with prefix when it is not empty.
func ToValidationErrors(err error, prefix string) ValidationErrors {
	return toValidationErrors(err, prefix)
}

func toValidationErrors(err error, prefix string) ValidationErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ValidationErrors{{Field: prefix, Reason: err.Error()}}
	}
	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if prefix != "" {
			field = prefix + "." + field
		}
		out = append(out, ValidationError{Field: field, Reason: reason(fe)})
	}
	return out
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "finite":
		return "must be a finite number"
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}
