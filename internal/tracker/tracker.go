// Package tracker holds the client side of the expense tracker: the session
// gate, the expense editor, the filtered list and the controller that keeps
// them in step with the document store. It knows nothing about terminals or
// HTTP.
package tracker

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/frahmantamala/expense-tracker/internal"
)

// Session is the resolved identity handed explicitly to everything that
// needs to know who is signed in.
type Session struct {
	UserID string
	Email  string
}

// Fields are the editable parts of a record.
type Fields struct {
	Category string
	Amount   string
	Comments string
}

// Record is one expense as last fetched from the store. Timestamps stay nil
// when the store never set them.
type Record struct {
	ID        string
	Category  string
	Amount    string
	Comments  string
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

func (r Record) Fields() Fields {
	return Fields{Category: r.Category, Amount: r.Amount, Comments: r.Comments}
}

// IdentityProvider resolves and changes who is signed in. Subscribers are
// called synchronously, in subscription order, with nil for signed out.
type IdentityProvider interface {
	Subscribe(fn func(*Session)) (unsubscribe func())
	SignIn(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
	// CurrentUser reports false until the identity has been resolved.
	CurrentUser() (*Session, bool)
}

// DocumentStore is the per-user expense collection. The store assigns ids
// and both timestamps.
type DocumentStore interface {
	ListAll(ctx context.Context, userID string) ([]Record, error)
	Create(ctx context.Context, userID string, f Fields) (string, error)
	Update(ctx context.Context, userID, id string, f Fields) error
	Delete(ctx context.Context, userID, id string) error
}

var (
	ErrNoSession    = errors.New("tracker: no signed-in user")
	ErrEditorOpen   = errors.New("tracker: editor is already open")
	ErrEditorClosed = errors.New("tracker: editor is closed")
	ErrUnknownField = errors.New("tracker: unknown field")
	ErrNoSuchRecord = errors.New("tracker: no such record in the current list")

	// ErrInvalidFields matches, via errors.Is, any submit rejected for a
	// missing or oversized field.
	ErrInvalidFields = apperrors.NewValidationError("Validation failed", apperrors.ErrCodeValidationFailed)
)
