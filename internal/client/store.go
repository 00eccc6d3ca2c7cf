package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/frahmantamala/expense-tracker/internal/category"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	"github.com/frahmantamala/expense-tracker/internal/tracker"
)

// TokenSource hands out access tokens together with the user they belong to.
// *Identity is one.
type TokenSource interface {
	Token(ctx context.Context) (token, userID string, err error)
}

// Store is the document store backed by /expenses.
type Store struct {
	api    *Client
	tokens TokenSource
}

func NewStore(api *Client, tokens TokenSource) *Store {
	return &Store{api: api, tokens: tokens}
}

func (s *Store) authorize(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", tracker.ErrNoSession
	}
	token, owner, err := s.tokens.Token(ctx)
	if err != nil {
		return "", err
	}
	if owner != userID {
		return "", ErrWrongAccount
	}
	return token, nil
}

func (s *Store) ListAll(ctx context.Context, userID string) ([]tracker.Record, error) {
	token, err := s.authorize(ctx, userID)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}

	var resp expense.ListResponse
	if err := s.api.do(ctx, http.MethodGet, "/expenses", token, nil, &resp); err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}

	records := make([]tracker.Record, 0, len(resp.Expenses))
	for _, e := range resp.Expenses {
		if e == nil {
			continue
		}
		records = append(records, toRecord(e))
	}
	return records, nil
}

func (s *Store) Create(ctx context.Context, userID string, f tracker.Fields) (string, error) {
	token, err := s.authorize(ctx, userID)
	if err != nil {
		return "", &StoreError{Op: "create", Err: err}
	}

	var resp expense.CreatedResponse
	if err := s.api.do(ctx, http.MethodPost, "/expenses", token, toDTO(f), &resp); err != nil {
		return "", &StoreError{Op: "create", Err: err}
	}
	return resp.ID, nil
}

func (s *Store) Update(ctx context.Context, userID, id string, f tracker.Fields) error {
	token, err := s.authorize(ctx, userID)
	if err != nil {
		return &StoreError{Op: "update", ID: id, Err: err}
	}
	if err := s.api.do(ctx, http.MethodPut, "/expenses/"+url.PathEscape(id), token, toDTO(f), nil); err != nil {
		return &StoreError{Op: "update", ID: id, Err: err}
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, userID, id string) error {
	token, err := s.authorize(ctx, userID)
	if err != nil {
		return &StoreError{Op: "delete", ID: id, Err: err}
	}
	if err := s.api.do(ctx, http.MethodDelete, "/expenses/"+url.PathEscape(id), token, nil, nil); err != nil {
		return &StoreError{Op: "delete", ID: id, Err: err}
	}
	return nil
}

// Categories lists the categories the user has used, most frequent first.
func (s *Store) Categories(ctx context.Context, userID string) ([]category.CategoryResponse, error) {
	token, err := s.authorize(ctx, userID)
	if err != nil {
		return nil, &StoreError{Op: "categories", Err: err}
	}
	var resp category.CategoriesResponse
	if err := s.api.do(ctx, http.MethodGet, "/categories", token, nil, &resp); err != nil {
		return nil, &StoreError{Op: "categories", Err: err}
	}
	return resp.Categories, nil
}

func toDTO(f tracker.Fields) expense.RecordFieldsDTO {
	return expense.RecordFieldsDTO{Category: f.Category, Amount: f.Amount, Comments: f.Comments}
}

func toRecord(e *expense.Record) tracker.Record {
	return tracker.Record{
		ID:        e.ID,
		Category:  e.Category,
		Amount:    e.Amount,
		Comments:  e.Comments,
		CreatedAt: timePtr(e.CreatedAt),
		UpdatedAt: timePtr(e.UpdatedAt),
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
