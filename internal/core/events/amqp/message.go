package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/frahmantamala/expense-tracker/internal/core/events"
)

// Message is the wire form of an expense lifecycle event.
type Message struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	ExpenseID  string    `json:"expense_id"`
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func MessageFromEvent(event events.Event) (Message, error) {
	e, ok := event.(*events.ExpenseEvent)
	if !ok {
		return Message{}, fmt.Errorf("expected *events.ExpenseEvent, got %T", event)
	}
	return Message{
		EventID:    e.EventID(),
		Type:       e.EventType(),
		ExpenseID:  e.ExpenseID,
		UserID:     e.UserID,
		OccurredAt: e.OccurredAt().UTC(),
	}, nil
}

func (m Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MessageFromJSON(body []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(body, &m); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if m.EventID == "" || m.Type == "" {
		return Message{}, fmt.Errorf("decode message: missing event id or type")
	}
	return m, nil
}
