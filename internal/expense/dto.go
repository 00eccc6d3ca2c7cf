package expense

import (
	errors "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/core/common/validation"
)

// RecordFieldsDTO is the request payload for creating or replacing the
// editable fields of a record.
type RecordFieldsDTO struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Comments string `json:"comments"`
}

func (dto RecordFieldsDTO) Validate() *errors.AppError {
	return validation.ValidateExpenseFields(dto.Category, dto.Amount)
}

func (dto RecordFieldsDTO) ToFields() Fields {
	return Fields{
		Category: dto.Category,
		Amount:   dto.Amount,
		Comments: dto.Comments,
	}
}

type CreatedResponse struct {
	ID string `json:"id"`
}

type ListResponse struct {
	Expenses []*Record `json:"expenses"`
}
