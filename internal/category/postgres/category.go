package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/frahmantamala/expense-tracker/internal/category"
	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) category.RepositoryAPI {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) UsedByUser(ctx context.Context, userID string) ([]*category.Category, error) {
	var categories []*category.Category
	err := r.db.WithContext(ctx).
		Model(&expenseDatamodel.Expense{}).
		Select("category AS name, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("category").
		Order("count DESC").
		Order("name ASC").
		Scan(&categories).Error
	return categories, err
}
