package validation

import (
	"strings"

	errors "github.com/frahmantamala/expense-approval/internal"
	"github.com/shopspring/decimal"
)

// MaxStoredAmount is the largest value a NUMERIC(14,2) money column holds.
var MaxStoredAmount = decimal.RequireFromString("999999999999.99")

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

// ValidationBuilder runs field checks in registration order and reports
// the first failure, so callers control which error code wins.
type ValidationBuilder struct {
	fields []*FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]*FieldValidator, 0),
	}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := &FieldValidator{
		FieldName:  name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return fv
}

type missable interface {
	Missing() bool
}

// Required fails on nil, zero IDs and blank (after trimming) strings.
func (fv *FieldValidator) Required(code errors.ErrorCode, message string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		missing := false
		switch v := value.(type) {
		case nil:
			missing = true
		case string:
			missing = strings.TrimSpace(v) == ""
		case *string:
			missing = v == nil || strings.TrimSpace(*v) == ""
		case int64:
			missing = v == 0
		case *int64:
			missing = v == nil || *v == 0
		case *decimal.Decimal:
			missing = v == nil
		case missable:
			missing = v.Missing()
		}
		if missing {
			return errors.NewValidationFieldError(fv.FieldName, message, code)
		}
		return nil
	})
	return fv
}

// NotBlank only checks values that were provided: a nil pointer passes.
func (fv *FieldValidator) NotBlank(code errors.ErrorCode, message string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				return errors.NewValidationFieldError(fv.FieldName, message, code)
			}
		case *string:
			if v != nil && strings.TrimSpace(*v) == "" {
				return errors.NewValidationFieldError(fv.FieldName, message, code)
			}
		}
		return nil
	})
	return fv
}

// Positive requires a decimal strictly greater than zero. A nil pointer passes.
func (fv *FieldValidator) Positive(code errors.ErrorCode, message string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		switch v := value.(type) {
		case decimal.Decimal:
			if !v.IsPositive() {
				return errors.NewValidationFieldError(fv.FieldName, message, code)
			}
		case *decimal.Decimal:
			if v != nil && !v.IsPositive() {
				return errors.NewValidationFieldError(fv.FieldName, message, code)
			}
		}
		return nil
	})
	return fv
}

// AtMost rejects decimals above limit. A nil pointer passes.
func (fv *FieldValidator) AtMost(limit decimal.Decimal, code errors.ErrorCode, message string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		switch v := value.(type) {
		case decimal.Decimal:
			if v.GreaterThan(limit) {
				return errors.NewValidationFieldError(fv.FieldName, message, code)
			}
		case *decimal.Decimal:
			if v != nil && v.GreaterThan(limit) {
				return errors.NewValidationFieldError(fv.FieldName, message, code)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) NotNegative(code errors.ErrorCode, message string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		switch v := value.(type) {
		case decimal.Decimal:
			if v.IsNegative() {
				return errors.NewValidationFieldError(fv.FieldName, message, code)
			}
		case int:
			if v < 0 {
				return errors.NewValidationFieldError(fv.FieldName, message, code)
			}
		case int64:
			if v < 0 {
				return errors.NewValidationFieldError(fv.FieldName, message, code)
			}
		}
		return nil
	})
	return fv
}

// OneOf accepts a string (or provided *string) from the allowed set.
func (fv *FieldValidator) OneOf(code errors.ErrorCode, message string, allowed ...string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		var s string
		switch v := value.(type) {
		case string:
			s = v
		case *string:
			if v == nil {
				return nil
			}
			s = *v
		default:
			return nil
		}
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return errors.NewValidationFieldError(fv.FieldName, message, code)
	})
	return fv
}

func (fv *FieldValidator) Custom(validator func(interface{}) *errors.AppError) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

func (v *ValidationBuilder) Validate() *errors.AppError {
	for _, field := range v.fields {
		for _, validator := range field.Validators {
			if err := validator(field.Value); err != nil {
				return err
			}
		}
	}
	return nil
}
