package user

import (
	apperrors "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/core/common/validation"
)

const maxProfileFieldLength = 200

// UpdateProfileDTO is a partial update; nil fields are left unchanged.
type UpdateProfileDTO struct {
	DisplayName *string `json:"display_name,omitempty"`
	CollegeName *string `json:"college_name,omitempty"`
}

func (d UpdateProfileDTO) Validate() *apperrors.AppError {
	if d.DisplayName == nil && d.CollegeName == nil {
		return apperrors.NewValidationError("nothing to update", apperrors.ErrCodeInvalidRequest)
	}

	v := validation.NewValidator()
	if d.DisplayName != nil {
		v.Field("display_name", *d.DisplayName).MaxLength(maxProfileFieldLength)
	}
	if d.CollegeName != nil {
		v.Field("college_name", *d.CollegeName).MaxLength(maxProfileFieldLength)
	}
	return v.Validate()
}

// Changes returns the column updates described by the DTO.
func (d UpdateProfileDTO) Changes() map[string]interface{} {
	changes := make(map[string]interface{}, 2)
	if d.DisplayName != nil {
		changes["display_name"] = *d.DisplayName
	}
	if d.CollegeName != nil {
		changes["college_name"] = *d.CollegeName
	}
	return changes
}
