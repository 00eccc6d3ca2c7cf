package auth

import (
	"fmt"

	apperrors "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/core/common/validation"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

type SignUpResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (d LoginDTO) Validate() *apperrors.AppError {
	if d.Email == "" || d.Password == "" {
		return apperrors.NewValidationError("email and password are required", apperrors.ErrCodeInvalidRequest)
	}
	return nil
}

// Validate applies the account rules: a well-formed address and a password
// of at least minPasswordLength characters. The returned error carries the
// specific INVALID_EMAIL or WEAK_PASSWORD code.
func (d SignUpDTO) Validate(minPasswordLength int) *apperrors.AppError {
	appErr := validation.ValidateCredentials(NormalizeEmail(d.Email), d.Password, minPasswordLength)
	if appErr == nil {
		return nil
	}

	details, ok := appErr.Details.(apperrors.ValidationErrors)
	if !ok || len(details.Errors) == 0 {
		return appErr
	}
	switch apperrors.ErrorCode(details.Errors[0].Code) {
	case apperrors.ErrCodeInvalidEmail:
		return apperrors.ErrInvalidEmail.WithDetails(details)
	case apperrors.ErrCodeWeakPassword:
		weak := apperrors.ErrWeakPassword.WithDetails(details)
		weak.Message = fmt.Sprintf("Password should be at least %d characters", minPasswordLength)
		return weak
	}
	return appErr
}

func (d RefreshTokenDTO) Validate() *apperrors.AppError {
	if d.RefreshToken == "" {
		return apperrors.NewValidationError("refresh_token is required", apperrors.ErrCodeInvalidRequest)
	}
	return nil
}
