package expense_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/frahmantamala/expense-tracker/internal"
	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-tracker/internal/core/events"
	"github.com/frahmantamala/expense-tracker/internal/expense"
)

type mockExpenseRepository struct {
	expenses    map[string]*expenseDatamodel.Expense
	shouldFail  bool
	createCalls int
	updateCalls int
}

func newMockExpenseRepository() *mockExpenseRepository {
	return &mockExpenseRepository{expenses: make(map[string]*expenseDatamodel.Expense)}
}

func (m *mockExpenseRepository) ListByUser(_ context.Context, userID string) ([]*expenseDatamodel.Expense, error) {
	if m.shouldFail {
		return nil, errors.New("database unavailable")
	}
	var out []*expenseDatamodel.Expense
	for _, e := range m.expenses {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *mockExpenseRepository) Create(_ context.Context, e *expenseDatamodel.Expense) error {
	m.createCalls++
	if m.shouldFail {
		return errors.New("database unavailable")
	}
	cp := *e
	m.expenses[e.ID] = &cp
	return nil
}

func (m *mockExpenseRepository) Update(_ context.Context, userID, id string, f expense.Fields, at time.Time) (time.Time, error) {
	m.updateCalls++
	if m.shouldFail {
		return time.Time{}, errors.New("database unavailable")
	}
	e, ok := m.expenses[id]
	if !ok || e.UserID != userID {
		return time.Time{}, apperrors.ErrExpenseNotFound
	}
	if !at.After(e.UpdatedAt) {
		at = e.UpdatedAt.Add(time.Microsecond)
	}
	e.Category, e.Amount, e.Comments, e.UpdatedAt = f.Category, f.Amount, f.Comments, at
	return at, nil
}

func (m *mockExpenseRepository) Delete(_ context.Context, userID, id string) error {
	if m.shouldFail {
		return errors.New("database unavailable")
	}
	e, ok := m.expenses[id]
	if !ok || e.UserID != userID {
		return apperrors.ErrExpenseNotFound
	}
	delete(m.expenses, id)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

var _ = Describe("ExpenseService", func() {
	var (
		ctx            context.Context
		expenseService *expense.Service
		mockRepo       *mockExpenseRepository
		publisher      *recordingPublisher
		logger         *slog.Logger
		now            time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		mockRepo = newMockExpenseRepository()
		publisher = &recordingPublisher{}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		now = time.Date(2024, 3, 1, 9, 30, 0, 123456789, time.UTC)
		expenseService = expense.NewService(mockRepo, publisher, logger).
			WithClock(func() time.Time { return now })
	})

	Describe("Create", func() {
		It("stores a new record with equal creation and update timestamps", func() {
			record, err := expenseService.Create(ctx, "user-1", expense.RecordFieldsDTO{
				Category: "Food",
				Amount:   "12.50",
				Comments: "lunch",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(record.ID).NotTo(BeEmpty())
			Expect(record.UserID).To(Equal("user-1"))
			Expect(record.Amount).To(Equal("12.50"))
			Expect(record.CreatedAt).To(Equal(now.Truncate(time.Microsecond)))
			Expect(record.UpdatedAt).To(Equal(record.CreatedAt))
			Expect(mockRepo.expenses).To(HaveKey(record.ID))
			Expect(publisher.types()).To(Equal([]string{events.EventTypeExpenseCreated}))
		})

		It("keeps the submitted text verbatim", func() {
			record, err := expenseService.Create(ctx, "user-1", expense.RecordFieldsDTO{
				Category: "  Food ",
				Amount:   "about ten",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(record.Category).To(Equal("  Food "))
			Expect(record.Amount).To(Equal("about ten"))
		})

		It("rejects a whitespace-only category without touching the repository", func() {
			_, err := expenseService.Create(ctx, "user-1", expense.RecordFieldsDTO{
				Category: "   ",
				Amount:   "5",
			})

			Expect(err).To(HaveOccurred())
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(apperrors.ErrorTypeValidation))
			details := appErr.Details.(apperrors.ValidationErrors)
			Expect(details.Errors[0].Code).To(Equal(string(apperrors.ErrCodeCategoryRequired)))
			Expect(mockRepo.createCalls).To(Equal(0))
			Expect(publisher.types()).To(BeEmpty())
		})

		It("rejects an empty amount", func() {
			_, err := expenseService.Create(ctx, "user-1", expense.RecordFieldsDTO{Category: "Food"})

			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			details := appErr.Details.(apperrors.ValidationErrors)
			Expect(details.Errors[0].Field).To(Equal("amount"))
			Expect(details.Errors[0].Code).To(Equal(string(apperrors.ErrCodeAmountRequired)))
		})

		It("requires a user id", func() {
			_, err := expenseService.Create(ctx, "", expense.RecordFieldsDTO{Category: "Food", Amount: "1"})
			Expect(errors.Is(err, apperrors.ErrMissingToken)).To(BeTrue())
		})

		It("wraps repository failures as internal errors", func() {
			mockRepo.shouldFail = true
			_, err := expenseService.Create(ctx, "user-1", expense.RecordFieldsDTO{Category: "Food", Amount: "1"})

			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(apperrors.ErrorTypeInternal))
			Expect(publisher.types()).To(BeEmpty())
		})
	})

	Describe("List", func() {
		It("returns only the caller's records in creation order", func() {
			first, err := expenseService.Create(ctx, "user-1", expense.RecordFieldsDTO{Category: "Food", Amount: "1"})
			Expect(err).NotTo(HaveOccurred())
			now = now.Add(time.Second)
			_, err = expenseService.Create(ctx, "user-2", expense.RecordFieldsDTO{Category: "Rent", Amount: "900"})
			Expect(err).NotTo(HaveOccurred())
			now = now.Add(time.Second)
			second, err := expenseService.Create(ctx, "user-1", expense.RecordFieldsDTO{Category: "Bus", Amount: "2"})
			Expect(err).NotTo(HaveOccurred())

			records, err := expenseService.List(ctx, "user-1")

			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
			Expect(records[0].ID).To(Equal(first.ID))
			Expect(records[1].ID).To(Equal(second.ID))
		})

		It("returns an internal error when the repository fails", func() {
			mockRepo.shouldFail = true
			records, err := expenseService.List(ctx, "user-1")

			Expect(err).To(HaveOccurred())
			Expect(records).To(BeNil())
		})
	})

	Describe("Update", func() {
		var created *expense.Record

		BeforeEach(func() {
			var err error
			created, err = expenseService.Create(ctx, "user-1", expense.RecordFieldsDTO{
				Category: "Food",
				Amount:   "10",
				Comments: "dinner",
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("replaces the editable fields and advances updated_at only", func() {
			now = now.Add(time.Minute)

			err := expenseService.Update(ctx, "user-1", created.ID, expense.RecordFieldsDTO{
				Category: "Groceries",
				Amount:   "11",
			})

			Expect(err).NotTo(HaveOccurred())
			stored := mockRepo.expenses[created.ID]
			Expect(stored.Category).To(Equal("Groceries"))
			Expect(stored.Amount).To(Equal("11"))
			Expect(stored.Comments).To(BeEmpty())
			Expect(stored.CreatedAt).To(Equal(created.CreatedAt))
			Expect(stored.UpdatedAt).To(BeTemporally(">", created.UpdatedAt))
			Expect(publisher.types()).To(Equal([]string{
				events.EventTypeExpenseCreated,
				events.EventTypeExpenseUpdated,
			}))
		})

		It("reports records of other users as not found", func() {
			err := expenseService.Update(ctx, "user-2", created.ID, expense.RecordFieldsDTO{Category: "X", Amount: "1"})

			Expect(errors.Is(err, apperrors.ErrExpenseNotFound)).To(BeTrue())
			Expect(mockRepo.expenses[created.ID].Category).To(Equal("Food"))
		})

		It("validates before calling the repository", func() {
			err := expenseService.Update(ctx, "user-1", created.ID, expense.RecordFieldsDTO{Category: "", Amount: "1"})

			Expect(err).To(HaveOccurred())
			Expect(mockRepo.updateCalls).To(Equal(0))
		})
	})

	Describe("Delete", func() {
		It("removes only the targeted record", func() {
			a, _ := expenseService.Create(ctx, "user-1", expense.RecordFieldsDTO{Category: "A", Amount: "1"})
			b, _ := expenseService.Create(ctx, "user-1", expense.RecordFieldsDTO{Category: "B", Amount: "2"})

			Expect(expenseService.Delete(ctx, "user-1", a.ID)).To(Succeed())

			records, err := expenseService.List(ctx, "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(records[0].ID).To(Equal(b.ID))
			Expect(records[0].Category).To(Equal("B"))
		})

		It("returns not found for an unknown id", func() {
			err := expenseService.Delete(ctx, "user-1", "missing")
			Expect(errors.Is(err, apperrors.ErrExpenseNotFound)).To(BeTrue())
		})
	})
})
