package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/user"
)

// Profile is the public view of the signed-in account.
type Profile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CollegeName string    `json:"college_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromDataModel(u *userDatamodel.User) *Profile {
	return &Profile{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CollegeName: u.CollegeName,
		CreatedAt:   u.CreatedAt.UTC(),
		UpdatedAt:   u.UpdatedAt.UTC(),
	}
}
