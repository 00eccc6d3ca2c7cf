package category_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/category"
	categoryPostgres "github.com/frahmantamala/expense-tracker/internal/category/postgres"
	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-tracker/internal/transport"
)

var _ = Describe("Category Handler Integration", func() {
	var (
		db      *gorm.DB
		handler *category.Handler
	)

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&expenseDatamodel.Expense{})).To(Succeed())

		now := time.Now().UTC()
		for i, row := range []struct{ user, category string }{
			{"user-1", "Food"},
			{"user-1", "Food"},
			{"user-1", "Rent"},
			{"user-2", "Travel"},
		} {
			Expect(db.Create(&expenseDatamodel.Expense{
				ID:        string(rune('a' + i)),
				UserID:    row.user,
				Category:  row.category,
				Amount:    "1",
				CreatedAt: now,
				UpdatedAt: now,
			}).Error).To(Succeed())
		}

		service := category.NewService(categoryPostgres.NewCategoryRepository(db), slogger)
		handler = category.NewHandler(&transport.BaseHandler{Logger: slogger}, service)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	It("should handle GET /categories for the signed-in user", func() {
		req := httptest.NewRequest(http.MethodGet, "/categories", nil)
		req = req.WithContext(apperrors.ContextWithPrincipal(req.Context(), apperrors.Principal{UserID: "user-1"}))
		w := httptest.NewRecorder()

		handler.GetCategories(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

		var response category.CategoriesResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.Categories).To(Equal([]category.CategoryResponse{
			{Name: "Food", Count: 2},
			{Name: "Rent", Count: 1},
		}))
	})

	It("should answer 401 without a principal", func() {
		w := httptest.NewRecorder()
		handler.GetCategories(w, httptest.NewRequest(http.MethodGet, "/categories", nil))
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})
