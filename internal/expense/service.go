package expense

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	errors "github.com/frahmantamala/expense-tracker/internal"
	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-tracker/internal/core/events"
	"github.com/frahmantamala/expense-tracker/pkg/metrics"
	"github.com/frahmantamala/expense-tracker/pkg/tracing"
)

// RepositoryAPI is the per-user expense collection. Every method is scoped by
// userID; a record owned by someone else is reported as ErrExpenseNotFound.
type RepositoryAPI interface {
	ListByUser(ctx context.Context, userID string) ([]*expenseDatamodel.Expense, error)
	Create(ctx context.Context, expense *expenseDatamodel.Expense) error
	// Update replaces the editable fields and returns the updated_at value
	// actually stored, which is strictly later than the previous one.
	Update(ctx context.Context, userID, id string, fields Fields, at time.Time) (time.Time, error)
	Delete(ctx context.Context, userID, id string) error
}

type Service struct {
	repo      RepositoryAPI
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// NewService builds the expense service. publisher may be nil, in which case
// lifecycle events are not emitted.
func NewService(repo RepositoryAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// WithClock replaces the timestamp source, mainly for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Service) List(ctx context.Context, userID string) (records []*Record, err error) {
	span, ctx := tracing.StartSpan(ctx, "expense.List")
	defer func() {
		metrics.ObserveStoreOperation("list", err)
		tracing.Finish(span, err)
	}()

	if userID == "" {
		return nil, errors.ErrMissingToken
	}

	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list expenses", "error", err, "user_id", userID)
		return nil, errors.NewInternalError("failed to list expenses", err)
	}

	return FromDataModelSlice(rows), nil
}

func (s *Service) Create(ctx context.Context, userID string, dto RecordFieldsDTO) (record *Record, err error) {
	span, ctx := tracing.StartSpan(ctx, "expense.Create")
	defer func() {
		metrics.ObserveStoreOperation("create", err)
		tracing.Finish(span, err)
	}()

	if userID == "" {
		return nil, errors.ErrMissingToken
	}
	if appErr := dto.Validate(); appErr != nil {
		s.logger.Warn("expense validation failed", "error", appErr, "user_id", userID)
		return nil, appErr
	}

	record = NewRecord(s.newID(), userID, dto.ToFields(), s.timestamp())
	if err := s.repo.Create(ctx, ToDataModel(record)); err != nil {
		s.logger.Error("failed to create expense", "error", err, "user_id", userID)
		return nil, errors.NewInternalError("failed to create expense", err)
	}

	s.logger.Info("expense created",
		"expense_id", record.ID,
		"user_id", userID,
		"category", record.Category)

	s.publish(ctx, events.NewExpenseCreatedEvent(record.ID, userID, record.CreatedAt))
	return record, nil
}

func (s *Service) Update(ctx context.Context, userID, id string, dto RecordFieldsDTO) (err error) {
	span, ctx := tracing.StartSpan(ctx, "expense.Update")
	span.SetTag("expense.id", id)
	defer func() {
		metrics.ObserveStoreOperation("update", err)
		tracing.Finish(span, err)
	}()

	if userID == "" {
		return errors.ErrMissingToken
	}
	if id == "" {
		return errors.ErrExpenseNotFound
	}
	if appErr := dto.Validate(); appErr != nil {
		s.logger.Warn("expense validation failed", "error", appErr, "user_id", userID, "expense_id", id)
		return appErr
	}

	updatedAt, err := s.repo.Update(ctx, userID, id, dto.ToFields(), s.timestamp())
	if err != nil {
		if appErr, ok := errors.IsAppError(err); ok {
			s.logger.Warn("expense update rejected", "error", appErr, "user_id", userID, "expense_id", id)
			return appErr
		}
		s.logger.Error("failed to update expense", "error", err, "user_id", userID, "expense_id", id)
		return errors.NewInternalError("failed to update expense", err)
	}

	s.logger.Info("expense updated", "expense_id", id, "user_id", userID)
	s.publish(ctx, events.NewExpenseUpdatedEvent(id, userID, updatedAt))
	return nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) (err error) {
	span, ctx := tracing.StartSpan(ctx, "expense.Delete")
	span.SetTag("expense.id", id)
	defer func() {
		metrics.ObserveStoreOperation("delete", err)
		tracing.Finish(span, err)
	}()

	if userID == "" {
		return errors.ErrMissingToken
	}
	if id == "" {
		return errors.ErrExpenseNotFound
	}

	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if appErr, ok := errors.IsAppError(err); ok {
			s.logger.Warn("expense delete rejected", "error", appErr, "user_id", userID, "expense_id", id)
			return appErr
		}
		s.logger.Error("failed to delete expense", "error", err, "user_id", userID, "expense_id", id)
		return errors.NewInternalError("failed to delete expense", err)
	}

	s.logger.Info("expense deleted", "expense_id", id, "user_id", userID)
	s.publish(ctx, events.NewExpenseDeletedEvent(id, userID, s.timestamp()))
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish expense event",
			"error", err,
			"event_type", event.EventType(),
			"event_id", event.EventID())
	}
}
