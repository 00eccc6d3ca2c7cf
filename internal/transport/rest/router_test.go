package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/auth"
	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	userDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	"github.com/frahmantamala/expense-tracker/internal/transport/middleware"
	"github.com/frahmantamala/expense-tracker/internal/transport/rest"
	pkgLogger "github.com/frahmantamala/expense-tracker/pkg/logger"
)

type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var _ = Describe("API router", func() {
	var (
		gdb    *gorm.DB
		router *chi.Mux
	)

	do := func(method, path, token string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			if raw, ok := body.(string); ok {
				buf.WriteString(raw)
			} else {
				Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
			}
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decodeError := func(w *httptest.ResponseRecorder) errorBody {
		var body errorBody
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		return body
	}

	signIn := func(email string) string {
		w := do(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{"email": email, "password": "secret-pass"})
		Expect(w.Code).To(Equal(http.StatusCreated))

		w = do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": "secret-pass"})
		Expect(w.Code).To(Equal(http.StatusOK))
		var tokens auth.AuthTokens
		Expect(json.NewDecoder(w.Body).Decode(&tokens)).To(Succeed())
		Expect(tokens.TokenType).To(Equal("Bearer"))
		return tokens.AccessToken
	}

	BeforeEach(func() {
		var err error
		gdb, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := gdb.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(gdb.AutoMigrate(&userDatamodel.User{}, &expenseDatamodel.Expense{})).To(Succeed())

		router, err = rest.NewAPI(rest.APIOptions{
			SQL:  sqlx.NewDb(sqlDB, "sqlite3"),
			Gorm: gdb,
			Security: internal.SecurityConfig{
				AccessTokenSecret:    "access-secret-access-secret-0123456789",
				RefreshTokenSecret:   "refresh-secret-refresh-secret-0123456789",
				AccessTokenDuration:  15 * time.Minute,
				RefreshTokenDuration: time.Hour,
				BCryptCost:           4,
				MinPasswordLength:    6,
			},
			Logger:         pkgLogger.Discard(),
			AllowedOrigins: []string{"http://localhost:3000"},
			MetricsPath:    "/metrics",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		sqlDB, err := gdb.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("infrastructure routes", func() {
		It("answers ping and reports the database as healthy", func() {
			Expect(do(http.MethodGet, "/api/v1/ping", "", nil).Code).To(Equal(http.StatusOK))

			w := do(http.MethodGet, "/api/v1/health", "", nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			var health rest.HealthResponse
			Expect(json.NewDecoder(w.Body).Decode(&health)).To(Succeed())
			Expect(health.Status).To(Equal(rest.HealthHealthy))
			Expect(health.Components).To(HaveKey("sqlite"))
		})

		It("serves the OpenAPI document and metrics", func() {
			w := do(http.MethodGet, "/openapi.yml", "", nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring("openapi: 3.0.3"))

			w = do(http.MethodGet, "/metrics", "", nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring("expense_tracker_http_requests_total"))
		})

		It("answers unknown routes and methods with an error body", func() {
			w := do(http.MethodGet, "/nope", "", nil)
			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(decodeError(w).Error.Code).To(Equal("NOT_FOUND"))

			w = do(http.MethodPatch, "/api/v1/ping", "", nil)
			Expect(w.Code).To(Equal(http.StatusMethodNotAllowed))
			Expect(decodeError(w).Error.Code).To(Equal("METHOD_NOT_ALLOWED"))
		})

		It("echoes a caller supplied trace id", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
			req.Header.Set("X-Trace-ID", "trace-123")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Header().Get("X-Trace-ID")).To(Equal("trace-123"))
		})

		It("answers CORS preflight for allowed origins only", func() {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/expenses", nil)
			req.Header.Set("Origin", "http://localhost:3000")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("http://localhost:3000"))
			Expect(w.Header().Get("Access-Control-Allow-Methods")).To(Equal(http.MethodPost))

			req.Header.Set("Origin", "http://evil.example")
			w = httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
		})
	})

	Describe("authentication", func() {
		It("rejects protected routes without a token", func() {
			w := do(http.MethodGet, "/api/v1/expenses", "", nil)
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(decodeError(w).Error.Code).To(Equal("MISSING_TOKEN"))
		})

		It("rejects a second sign-up with the same email", func() {
			signIn("dup@example.com")
			w := do(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{"email": "dup@example.com", "password": "secret-pass"})
			Expect(w.Code).To(Equal(http.StatusConflict))
			Expect(decodeError(w).Error.Code).To(Equal("EMAIL_ALREADY_IN_USE"))
		})

		It("rejects unknown fields through the schema", func() {
			w := do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "a@example.com", "password": "x", "role": "admin"})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeError(w).Error.Code).To(Equal("VALIDATION_FAILED"))
		})
	})

	Describe("expense lifecycle", func() {
		It("creates, lists, updates and deletes the caller's records", func() {
			token := signIn("owner@example.com")

			w := do(http.MethodPost, "/api/v1/expenses", token, map[string]string{"category": "Food", "amount": "12.50", "comments": "lunch"})
			Expect(w.Code).To(Equal(http.StatusCreated))
			var created expense.CreatedResponse
			Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
			Expect(created.ID).NotTo(BeEmpty())

			w = do(http.MethodPut, "/api/v1/expenses/"+created.ID, token, map[string]string{"category": "Groceries", "amount": "12.50", "comments": "lunch"})
			Expect(w.Code).To(Equal(http.StatusNoContent))

			w = do(http.MethodGet, "/api/v1/expenses", token, nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			var list expense.ListResponse
			Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
			Expect(list.Expenses).To(HaveLen(1))
			Expect(list.Expenses[0].Category).To(Equal("Groceries"))
			Expect(list.Expenses[0].UpdatedAt).To(BeTemporally(">", list.Expenses[0].CreatedAt))

			w = do(http.MethodGet, "/api/v1/categories", token, nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring("Groceries"))

			Expect(do(http.MethodDelete, "/api/v1/expenses/"+created.ID, token, nil).Code).To(Equal(http.StatusNoContent))
			Expect(do(http.MethodDelete, "/api/v1/expenses/"+created.ID, token, nil).Code).To(Equal(http.StatusNotFound))
		})

		It("keeps records private to their owner", func() {
			owner := signIn("owner@example.com")
			other := signIn("other@example.com")

			w := do(http.MethodPost, "/api/v1/expenses", owner, map[string]string{"category": "Rent", "amount": "900"})
			Expect(w.Code).To(Equal(http.StatusCreated))
			var created expense.CreatedResponse
			Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())

			w = do(http.MethodGet, "/api/v1/expenses", other, nil)
			var list expense.ListResponse
			Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
			Expect(list.Expenses).To(BeEmpty())

			w = do(http.MethodDelete, "/api/v1/expenses/"+created.ID, other, nil)
			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(decodeError(w).Error.Code).To(Equal("EXPENSE_NOT_FOUND"))
		})

		It("reports a missing category with its own code", func() {
			token := signIn("owner@example.com")
			w := do(http.MethodPost, "/api/v1/expenses", token, map[string]string{"category": "  ", "amount": "3"})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring(`"code":"CATEGORY_REQUIRED"`))
		})

		It("accepts long free text", func() {
			token := signIn("owner@example.com")
			long := strings.Repeat("x", 1001)
			w := do(http.MethodPost, "/api/v1/expenses", token, map[string]string{"category": long, "amount": "3", "comments": long})
			Expect(w.Code).To(Equal(http.StatusCreated))

			w = do(http.MethodGet, "/api/v1/expenses", token, nil)
			var list expense.ListResponse
			Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
			Expect(list.Expenses).To(HaveLen(1))
			Expect(list.Expenses[0].Comments).To(Equal(long))
		})

		It("refuses bodies over the transport limit", func() {
			token := signIn("owner@example.com")
			huge := strings.Repeat("x", middleware.MaxBodyBytes+1)
			w := do(http.MethodPost, "/api/v1/expenses", token, map[string]string{"category": "Food", "amount": "3", "comments": huge})
			Expect(w.Code).To(Equal(http.StatusRequestEntityTooLarge))
			Expect(decodeError(w).Error.Code).To(Equal("REQUEST_TOO_LARGE"))
		})

		It("leaves malformed JSON to the handler", func() {
			token := signIn("owner@example.com")
			w := do(http.MethodPost, "/api/v1/expenses", token, "{not json")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeError(w).Error.Code).To(Equal("INVALID_REQUEST"))
		})
	})
})
