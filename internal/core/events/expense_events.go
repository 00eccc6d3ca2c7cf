package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeExpenseCreated = "expense.created"
	EventTypeExpenseUpdated = "expense.updated"
	EventTypeExpenseDeleted = "expense.deleted"
)

// ExpenseEventTypes lists every expense lifecycle event type.
var ExpenseEventTypes = []string{
	EventTypeExpenseCreated,
	EventTypeExpenseUpdated,
	EventTypeExpenseDeleted,
}

type ExpenseEvent struct {
	BaseEvent
	ExpenseID string `json:"expense_id"`
	UserID    string `json:"user_id"`
}

func NewExpenseEvent(eventType, expenseID, userID string, at time.Time) *ExpenseEvent {
	return &ExpenseEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      eventType,
			Timestamp: at,
			Data: map[string]interface{}{
				"expense_id": expenseID,
				"user_id":    userID,
			},
		},
		ExpenseID: expenseID,
		UserID:    userID,
	}
}

func NewExpenseCreatedEvent(expenseID, userID string, at time.Time) *ExpenseEvent {
	return NewExpenseEvent(EventTypeExpenseCreated, expenseID, userID, at)
}

func NewExpenseUpdatedEvent(expenseID, userID string, at time.Time) *ExpenseEvent {
	return NewExpenseEvent(EventTypeExpenseUpdated, expenseID, userID, at)
}

func NewExpenseDeletedEvent(expenseID, userID string, at time.Time) *ExpenseEvent {
	return NewExpenseEvent(EventTypeExpenseDeleted, expenseID, userID, at)
}
