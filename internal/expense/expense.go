package expense

import (
	"time"

	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
)

// Record is one expense owned by a single account.
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Category  string    `json:"category"`
	Amount    string    `json:"amount"`
	Comments  string    `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Fields are the user-editable parts of a record.
type Fields struct {
	Category string
	Amount   string
	Comments string
}

func NewRecord(id, userID string, f Fields, at time.Time) *Record {
	return &Record{
		ID:        id,
		UserID:    userID,
		Category:  f.Category,
		Amount:    f.Amount,
		Comments:  f.Comments,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func (r *Record) Fields() Fields {
	return Fields{Category: r.Category, Amount: r.Amount, Comments: r.Comments}
}

func ToDataModel(r *Record) *expenseDatamodel.Expense {
	return &expenseDatamodel.Expense{
		ID:        r.ID,
		UserID:    r.UserID,
		Category:  r.Category,
		Amount:    r.Amount,
		Comments:  r.Comments,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func FromDataModel(e *expenseDatamodel.Expense) *Record {
	return &Record{
		ID:        e.ID,
		UserID:    e.UserID,
		Category:  e.Category,
		Amount:    e.Amount,
		Comments:  e.Comments,
		CreatedAt: e.CreatedAt.UTC(),
		UpdatedAt: e.UpdatedAt.UTC(),
	}
}

func FromDataModelSlice(expenses []*expenseDatamodel.Expense) []*Record {
	result := make([]*Record, len(expenses))
	for i, e := range expenses {
		result[i] = FromDataModel(e)
	}
	return result
}
