package rest

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/expense-tracker/api"
	"github.com/frahmantamala/expense-tracker/internal/auth"
	"github.com/frahmantamala/expense-tracker/internal/category"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	"github.com/frahmantamala/expense-tracker/internal/transport"
	"github.com/frahmantamala/expense-tracker/internal/transport/middleware"
	"github.com/frahmantamala/expense-tracker/internal/transport/swagger"
	"github.com/frahmantamala/expense-tracker/internal/user"
	"github.com/frahmantamala/expense-tracker/pkg/metrics"
)

// Dependencies is everything the route table needs. Nil handlers leave their
// routes unmounted.
type Dependencies struct {
	DB              *sql.DB
	DBComponent     string
	AuthHandler     *auth.Handler
	UserHandler     *user.Handler
	ExpenseHandler  *expense.Handler
	CategoryHandler *category.Handler
	Logger          *slog.Logger

	AllowedOrigins []string
	MetricsPath    string // empty disables /metrics
}

func RegisterAllRoutes(router *chi.Mux, deps Dependencies) error {
	validator, err := middleware.NewBodyValidator(api.Spec)
	if err != nil {
		return fmt.Errorf("openapi validator: %w", err)
	}

	healthHandler := NewHealthHandler(deps.DB, deps.DBComponent)
	base := transport.NewBaseHandler(deps.Logger)

	router.Use(middleware.CORS(deps.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.LoggingMiddleware(deps.Logger))
	router.Use(middleware.Metrics)
	router.Use(middleware.Tracing)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		base.WriteError(w, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		base.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.Get(swagger.SpecURL, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.Spec)
	})
	router.Handle("/swagger/*", swagger.Handler())
	if deps.MetricsPath != "" {
		router.Handle(deps.MetricsPath, metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", healthHandler.Ping)
		r.Get("/health", healthHandler.Health)

		if deps.AuthHandler == nil {
			return
		}

		r.Route("/auth", func(sr chi.Router) {
			sr.With(validator.Body("SignUp")).Post("/signup", deps.AuthHandler.SignUp)
			sr.With(validator.Body("Login")).Post("/login", deps.AuthHandler.Login)
			sr.With(validator.Body("Refresh")).Post("/refresh", deps.AuthHandler.RefreshToken)
			sr.With(deps.AuthHandler.AuthMiddleware).Post("/logout", deps.AuthHandler.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(deps.AuthHandler.AuthMiddleware)

			if deps.UserHandler != nil {
				pr.Get("/users/me", deps.UserHandler.GetCurrentUser)
				pr.With(validator.Body("UpdateProfile")).Patch("/users/me", deps.UserHandler.UpdateCurrentUser)
			}

			if deps.ExpenseHandler != nil {
				pr.Route("/expenses", func(er chi.Router) {
					er.Get("/", deps.ExpenseHandler.ListExpenses)
					er.With(validator.Body("RecordFields")).Post("/", deps.ExpenseHandler.CreateExpense)
					er.With(validator.Body("RecordFields")).Put("/{id}", deps.ExpenseHandler.UpdateExpense)
					er.Delete("/{id}", deps.ExpenseHandler.DeleteExpense)
				})
			}

			if deps.CategoryHandler != nil {
				pr.Get("/categories", deps.CategoryHandler.GetCategories)
			}
		})
	})

	return nil
}
