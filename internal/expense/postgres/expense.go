package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/frahmantamala/expense-tracker/internal"
	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-tracker/internal/expense"
)

// ExpenseRepository implements expense.RepositoryAPI using GORM. It works
// with both the postgres and the sqlite dialector.
type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) expense.RepositoryAPI {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) ListByUser(ctx context.Context, userID string) ([]*expenseDatamodel.Expense, error) {
	var expenses []*expenseDatamodel.Expense
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&expenses).Error
	return expenses, err
}

func (r *ExpenseRepository) Create(ctx context.Context, exp *expenseDatamodel.Expense) error {
	return r.db.WithContext(ctx).Create(exp).Error
}

// Update rewrites category, amount and comments of a record owned by userID.
// created_at is never touched. updated_at becomes at, or the previous value
// plus one microsecond when at does not move past it.
func (r *ExpenseRepository) Update(ctx context.Context, userID, id string, fields expense.Fields, at time.Time) (time.Time, error) {
	var applied time.Time

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current expenseDatamodel.Expense
		err := tx.Select("id", "updated_at").
			Where("id = ? AND user_id = ?", id, userID).
			Take(&current).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrExpenseNotFound
			}
			return err
		}

		applied = at
		if !applied.After(current.UpdatedAt) {
			applied = current.UpdatedAt.Add(time.Microsecond)
		}

		res := tx.Model(&expenseDatamodel.Expense{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(map[string]interface{}{
				"category":   fields.Category,
				"amount":     fields.Amount,
				"comments":   fields.Comments,
				"updated_at": applied,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrExpenseNotFound
		}
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	return applied.UTC(), nil
}

func (r *ExpenseRepository) Delete(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&expenseDatamodel.Expense{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrExpenseNotFound
	}
	return nil
}
