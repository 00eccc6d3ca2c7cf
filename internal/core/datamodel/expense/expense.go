package expense

import "time"

// Expense is one record of a user's expense collection. Timestamps are
// written explicitly by the store, so gorm's automatic tracking is off.
type Expense struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"column:user_id;size:36;not null;index:idx_expenses_user_created,priority:1"`
	Category  string    `gorm:"column:category;not null"`
	Amount    string    `gorm:"column:amount;not null"`
	Comments  string    `gorm:"column:comments;not null;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime:false;index:idx_expenses_user_created,priority:2"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

func (Expense) TableName() string {
	return "expenses"
}
