package rest

import (
	"errors"
	"log/slog"
	"time"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	"github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/auth"
	authPostgres "github.com/frahmantamala/expense-tracker/internal/auth/postgres"
	"github.com/frahmantamala/expense-tracker/internal/category"
	categoryPostgres "github.com/frahmantamala/expense-tracker/internal/category/postgres"
	"github.com/frahmantamala/expense-tracker/internal/core/events"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	expensePostgres "github.com/frahmantamala/expense-tracker/internal/expense/postgres"
	"github.com/frahmantamala/expense-tracker/internal/transport"
	"github.com/frahmantamala/expense-tracker/internal/user"
	userPostgres "github.com/frahmantamala/expense-tracker/internal/user/postgres"
)

// APIOptions holds what NewAPI needs to assemble the backend. SQL and Gorm
// must share the same underlying pool.
type APIOptions struct {
	SQL       *sqlx.DB
	Gorm      *gorm.DB
	Security  internal.SecurityConfig
	Publisher events.Publisher
	Logger    *slog.Logger

	AllowedOrigins []string
	MetricsPath    string

	// Clock overrides the expense timestamp source.
	Clock func() time.Time
}

// NewAPI builds repositories, services and handlers and mounts them on a
// fresh router.
func NewAPI(opts APIOptions) (*chi.Mux, error) {
	if opts.SQL == nil || opts.Gorm == nil {
		return nil, errors.New("rest: both sqlx and gorm handles are required")
	}
	if opts.Logger == nil {
		return nil, errors.New("rest: logger is required")
	}

	tokenGen := auth.NewJWTTokenGenerator(
		opts.Security.AccessTokenSecret,
		opts.Security.RefreshTokenSecret,
		opts.Security.AccessTokenDuration,
		opts.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(
		authPostgres.NewRepository(opts.SQL),
		tokenGen,
		opts.Security.BCryptCost,
		opts.Security.MinPasswordLength,
		opts.Logger,
	)

	expenseService := expense.NewService(expensePostgres.NewExpenseRepository(opts.Gorm), opts.Publisher, opts.Logger)
	if opts.Clock != nil {
		expenseService.WithClock(opts.Clock)
	}

	userService := user.NewService(userPostgres.NewUserRepository(opts.Gorm), opts.Logger)
	categoryService := category.NewService(categoryPostgres.NewCategoryRepository(opts.Gorm), opts.Logger)

	router := chi.NewRouter()
	err := RegisterAllRoutes(router, Dependencies{
		DB:              opts.SQL.DB,
		DBComponent:     componentName(opts.SQL.DriverName()),
		AuthHandler:     auth.NewHandler(authService),
		UserHandler:     user.NewHandler(userService),
		ExpenseHandler:  expense.NewHandler(expenseService),
		CategoryHandler: category.NewHandler(transport.NewBaseHandler(opts.Logger), categoryService),
		Logger:          opts.Logger,
		AllowedOrigins:  opts.AllowedOrigins,
		MetricsPath:     opts.MetricsPath,
	})
	if err != nil {
		return nil, err
	}
	return router, nil
}

func componentName(driver string) string {
	switch driver {
	case "pgx", "postgres":
		return "postgres"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return driver
	}
}
