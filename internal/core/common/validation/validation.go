package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	errors "github.com/frahmantamala/expense-tracker/internal"
)

type ValidatorFunc func(string) *errors.ValidationError

type FieldValidator struct {
	FieldName  string
	Value      string
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields []*FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{}
}

func (v *ValidationBuilder) Field(name, value string) *FieldValidator {
	fv := &FieldValidator{FieldName: name, Value: value}
	v.fields = append(v.fields, fv)
	return fv
}

// Required rejects values that are empty once surrounding whitespace is removed.
func (fv *FieldValidator) Required(code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value string) *errors.ValidationError {
		if strings.TrimSpace(value) == "" {
			return &errors.ValidationError{
				Field:   fv.FieldName,
				Message: fmt.Sprintf("%s is required", fv.FieldName),
				Code:    string(code),
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MinLength(min int, code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value string) *errors.ValidationError {
		if utf8.RuneCountInString(value) < min {
			return &errors.ValidationError{
				Field:   fv.FieldName,
				Message: fmt.Sprintf("%s must be at least %d characters", fv.FieldName, min),
				Code:    string(code),
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value string) *errors.ValidationError {
		if utf8.RuneCountInString(value) > max {
			return &errors.ValidationError{
				Field:   fv.FieldName,
				Message: fmt.Sprintf("%s must not exceed %d characters", fv.FieldName, max),
				Code:    string(errors.ErrCodeFieldTooLong),
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Email() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value string) *errors.ValidationError {
		addr, err := mail.ParseAddress(value)
		if err != nil || addr.Address != value || !strings.Contains(value, "@") {
			return &errors.ValidationError{
				Field:   fv.FieldName,
				Message: "The email address is badly formatted",
				Code:    string(errors.ErrCodeInvalidEmail),
			}
		}
		return nil
	})
	return fv
}

// Validate runs every field's validators and stops at the first failure per
// field.
func (v *ValidationBuilder) Validate() *errors.AppError {
	var validationErrors []errors.ValidationError

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			if verr := validator(field.Value); verr != nil {
				validationErrors = append(validationErrors, *verr)
				break
			}
		}
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
			WithDetails(errors.ValidationErrors{Errors: validationErrors})
	}

	return nil
}

// ValidateExpenseFields checks the editable fields of an expense record.
// All three are free text of any length; category and amount must not be
// blank.
func ValidateExpenseFields(category, amount string) *errors.AppError {
	validator := NewValidator()
	validator.Field("category", category).
		Required(errors.ErrCodeCategoryRequired)
	validator.Field("amount", amount).
		Required(errors.ErrCodeAmountRequired)
	return validator.Validate()
}

func ValidateCredentials(email, password string, minPasswordLength int) *errors.AppError {
	validator := NewValidator()
	validator.Field("email", email).
		Required(errors.ErrCodeInvalidEmail).
		Email()
	validator.Field("password", password).
		Required(errors.ErrCodeWeakPassword).
		MinLength(minPasswordLength, errors.ErrCodeWeakPassword)
	return validator.Validate()
}
