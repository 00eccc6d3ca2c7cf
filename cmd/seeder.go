package cmd

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/auth"
	authPostgres "github.com/frahmantamala/expense-tracker/internal/auth/postgres"
	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	expensePostgres "github.com/frahmantamala/expense-tracker/internal/expense/postgres"
	"github.com/spf13/cobra"
)

const (
	demoEmail    = "demo@mail.com"
	demoPassword = "password"
)

var demoExpenses = []expense.RecordFieldsDTO{
	{Category: "Food", Amount: "12.50", Comments: "lunch at the canteen"},
	{Category: "Groceries", Amount: "48.20", Comments: "weekly shop"},
	{Category: "Transport", Amount: "2.75"},
	{Category: "Books", Amount: "35", Comments: "algorithms textbook"},
	{Category: "Food", Amount: "7.90", Comments: "coffee and bagel"},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a demo account and a handful of expenses for development and testing purposes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		deps, err := initializeDependencies()
		if err != nil {
			return err
		}
		defer deps.close()

		return seed(ctx, deps)
	},
}

func seed(ctx context.Context, deps *Dependencies) error {
	accounts := authPostgres.NewRepository(deps.SQL)
	authService := auth.NewService(accounts, nil, deps.Config.Security.BCryptCost, deps.Config.Security.MinPasswordLength, deps.Logger)

	userID, err := demoAccount(ctx, authService, accounts)
	if err != nil {
		return err
	}

	if clearData {
		result := deps.Gorm.WithContext(ctx).Where("user_id = ?", userID).Delete(&expenseDatamodel.Expense{})
		if result.Error != nil {
			return fmt.Errorf("failed to clear expenses: %w", result.Error)
		}
		fmt.Printf("Cleared %d expenses of %s\n", result.RowsAffected, demoEmail)
	}

	var existing int64
	if err := deps.Gorm.WithContext(ctx).Model(&expenseDatamodel.Expense{}).Where("user_id = ?", userID).Count(&existing).Error; err != nil {
		return fmt.Errorf("failed to count expenses: %w", err)
	}
	if existing > 0 {
		fmt.Printf("%s already has %d expenses; use --clear to reseed\n", demoEmail, existing)
		return nil
	}

	expenseService := expense.NewService(expensePostgres.NewExpenseRepository(deps.Gorm), deps.Bus, deps.Logger)
	for _, dto := range demoExpenses {
		if _, err := expenseService.Create(ctx, userID, dto); err != nil {
			return fmt.Errorf("failed to insert expense %s: %w", dto.Category, err)
		}
		fmt.Printf("Seeded expense: %s %s\n", dto.Category, dto.Amount)
	}
	deps.Bus.Wait()

	fmt.Println("Expenses seeded successfully")
	return nil
}

func demoAccount(ctx context.Context, svc *auth.Service, accounts auth.RepositoryAPI) (string, error) {
	account, err := svc.SignUp(ctx, auth.SignUpDTO{Email: demoEmail, Password: demoPassword})
	if err == nil {
		fmt.Println("Seeded demo user:", demoEmail)
		return account.ID, nil
	}
	if !errors.Is(err, apperrors.ErrEmailInUse) {
		return "", fmt.Errorf("failed to insert demo user: %w", err)
	}

	fmt.Println("demo user already exists")
	existing, err := accounts.GetAccountByEmail(ctx, demoEmail)
	if err != nil {
		return "", fmt.Errorf("failed to lookup demo user: %w", err)
	}
	return existing.ID, nil
}
