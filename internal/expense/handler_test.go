package expense_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/frahmantamala/expense-tracker/internal"
	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	expensePostgres "github.com/frahmantamala/expense-tracker/internal/expense/postgres"
)

var _ = Describe("Expense Handler Integration", func() {
	var (
		db      *gorm.DB
		router  chi.Router
		slogger *slog.Logger
		userID  string
	)

	withPrincipal := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := apperrors.ContextWithPrincipal(r.Context(), apperrors.Principal{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	list := func() []*expense.Record {
		w := do(http.MethodGet, "/expenses", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var resp expense.ListResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		return resp.Expenses
	}

	BeforeEach(func() {
		var err error
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		userID = "user-1"

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&expenseDatamodel.Expense{})).To(Succeed())

		service := expense.NewService(expensePostgres.NewExpenseRepository(db), nil, slogger)
		handler := expense.NewHandler(service)
		handler.Logger = slogger

		router = chi.NewRouter()
		router.Use(withPrincipal)
		router.Get("/expenses", handler.ListExpenses)
		router.Post("/expenses", handler.CreateExpense)
		router.Put("/expenses/{id}", handler.UpdateExpense)
		router.Delete("/expenses/{id}", handler.DeleteExpense)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	It("creates a record and returns its id", func() {
		w := do(http.MethodPost, "/expenses", `{"category":"Food","amount":"12","comments":"lunch"}`)

		Expect(w.Code).To(Equal(http.StatusCreated))
		var created expense.CreatedResponse
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.ID).NotTo(BeEmpty())

		records := list()
		Expect(records).To(HaveLen(1))
		Expect(records[0].ID).To(Equal(created.ID))
		Expect(records[0].CreatedAt).To(BeTemporally("==", records[0].UpdatedAt))
	})

	It("answers 400 with the validation code for an empty category", func() {
		w := do(http.MethodPost, "/expenses", `{"category":"","amount":"12"}`)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring(string(apperrors.ErrCodeCategoryRequired)))
		Expect(list()).To(BeEmpty())
	})

	It("rejects malformed bodies", func() {
		w := do(http.MethodPost, "/expenses", `{"category":`)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring(string(apperrors.ErrCodeInvalidRequest)))
	})

	It("updates and deletes by id", func() {
		w := do(http.MethodPost, "/expenses", `{"category":"Food","amount":"12"}`)
		var created expense.CreatedResponse
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())

		w = do(http.MethodPut, "/expenses/"+created.ID, `{"category":"Groceries","amount":"13","comments":"market"}`)
		Expect(w.Code).To(Equal(http.StatusNoContent))

		records := list()
		Expect(records[0].Category).To(Equal("Groceries"))
		Expect(records[0].UpdatedAt).To(BeTemporally(">", records[0].CreatedAt))

		w = do(http.MethodDelete, "/expenses/"+created.ID, "")
		Expect(w.Code).To(Equal(http.StatusNoContent))
		Expect(list()).To(BeEmpty())
	})

	It("hides records of other users", func() {
		w := do(http.MethodPost, "/expenses", `{"category":"Food","amount":"12"}`)
		var created expense.CreatedResponse
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())

		userID = "user-2"
		Expect(list()).To(BeEmpty())

		w = do(http.MethodDelete, "/expenses/"+created.ID, "")
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Body.String()).To(ContainSubstring(string(apperrors.ErrCodeExpenseNotFound)))
	})

	It("answers 401 without a principal", func() {
		userID = ""
		w := do(http.MethodGet, "/expenses", "")
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})
