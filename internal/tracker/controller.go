package tracker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/frahmantamala/expense-tracker/internal/core/common/validation"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
)

// Controller drives one signed-in session: it owns the last snapshot of the
// user's records, the editor and the search query, and re-reads the whole
// collection after every successful mutation.
//
// Store calls are made without holding the lock, so readers keep seeing the
// previous snapshot while a call is in flight. Mutations are not serialized;
// when two race, whichever refresh lands last wins.
type Controller struct {
	store    DocumentStore
	session  Session
	notifier Notifier
	logger   *slog.Logger

	mu       sync.Mutex
	snapshot []Record
	editor   Editor
	query    string
}

func NewController(store DocumentStore, session Session, notifier Notifier) *Controller {
	if notifier == nil {
		notifier = NotifierFunc(func(Notification) {})
	}
	return &Controller{
		store:    store,
		session:  session,
		notifier: notifier,
		logger:   logger.LoggerWrapper().With("component", "tracker", "user_id", session.UserID),
	}
}

func (c *Controller) Session() Session {
	return c.session
}

// Refresh replaces the snapshot with the store's full collection. On failure
// the previous snapshot stays in place.
func (c *Controller) Refresh(ctx context.Context) error {
	if c.session.UserID == "" {
		notifyError(c.notifier, "Could not load expenses", ErrNoSession)
		return ErrNoSession
	}

	records, err := c.store.ListAll(ctx, c.session.UserID)
	if err != nil {
		c.logger.Warn("list failed", "error", err)
		notifyError(c.notifier, "Could not load expenses", err)
		return err
	}

	c.mu.Lock()
	c.snapshot = records
	c.mu.Unlock()
	return nil
}

// Records returns the full last snapshot.
func (c *Controller) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Record(nil), c.snapshot...)
}

// SetFilter stores the search query. It never reaches the store.
func (c *Controller) SetFilter(query string) {
	c.mu.Lock()
	c.query = query
	c.mu.Unlock()
}

func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Visible is the snapshot filtered by the current query.
func (c *Controller) Visible() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Filter(c.snapshot, c.query)
}

// Find looks a record up in the last snapshot.
func (c *Controller) Find(id string) (Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.snapshot {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

func (c *Controller) Form() FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editor.State()
}

func (c *Controller) OpenForAdd() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editor.OpenForAdd()
}

// OpenForEdit opens the editor on a record from the current snapshot.
func (c *Controller) OpenForEdit(id string) error {
	r, ok := c.Find(id)
	if !ok {
		return ErrNoSuchRecord
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editor.OpenForEdit(r)
}

func (c *Controller) SetField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editor.SetField(name, value)
}

func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editor.Cancel()
}

// Submit sends the open form to the store: Create when adding, Update when
// editing. Invalid input is rejected before any store call and leaves the
// editor open, as does a store failure. On success the list is re-read and
// the editor closed.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	form := c.editor.State()
	c.mu.Unlock()

	if !form.Open() {
		return ErrEditorClosed
	}
	if c.session.UserID == "" {
		notifyError(c.notifier, "Could not save expense", ErrNoSession)
		return ErrNoSession
	}

	f := form.Fields
	if appErr := validation.ValidateExpenseFields(f.Category, f.Amount); appErr != nil {
		c.notifier.Notify(Notification{Kind: Error, Title: "Missing required field", Message: appErr.GetDetailedMessage()})
		return appErr
	}

	var err error
	if form.Mode == Creating {
		var id string
		id, err = c.store.Create(ctx, c.session.UserID, f)
		if err == nil {
			c.logger.Debug("expense created", "expense_id", id)
		}
	} else {
		err = c.store.Update(ctx, c.session.UserID, form.TargetID, f)
	}
	if err != nil {
		c.logger.Warn("save failed", "mode", form.Mode.String(), "error", err)
		notifyError(c.notifier, "Could not save expense", err)
		return err
	}

	_ = c.Refresh(ctx)

	c.mu.Lock()
	if cur := c.editor.State(); cur.Mode == form.Mode && cur.TargetID == form.TargetID {
		c.editor.reset()
	}
	c.mu.Unlock()
	return nil
}

// Delete removes a record with no confirmation. On failure nothing changes.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if c.session.UserID == "" {
		notifyError(c.notifier, "Could not delete expense", ErrNoSession)
		return ErrNoSession
	}

	if err := c.store.Delete(ctx, c.session.UserID, id); err != nil {
		c.logger.Warn("delete failed", "expense_id", id, "error", err)
		notifyError(c.notifier, "Could not delete expense", err)
		return err
	}

	_ = c.Refresh(ctx)
	return nil
}
