package expense

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	errors "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/transport"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
)

type ServiceAPI interface {
	List(ctx context.Context, userID string) ([]*Record, error)
	Create(ctx context.Context, userID string, dto RecordFieldsDTO) (*Record, error)
	Update(ctx context.Context, userID, id string, dto RecordFieldsDTO) error
	Delete(ctx context.Context, userID, id string) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	principal, ok := errors.PrincipalFromContext(r.Context())
	if !ok {
		h.Logger.Error("ListExpenses: principal not found in context")
		h.WriteAppError(w, errors.ErrMissingToken)
		return
	}

	records, err := h.Service.List(r.Context(), principal.UserID)
	if err != nil {
		h.Logger.Error("ListExpenses: service error", "error", err, "user_id", principal.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{Expenses: records})
}

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	principal, ok := errors.PrincipalFromContext(r.Context())
	if !ok {
		h.Logger.Error("CreateExpense: principal not found in context")
		h.WriteAppError(w, errors.ErrMissingToken)
		return
	}

	var dto RecordFieldsDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.Logger.Warn("CreateExpense: invalid request body", "error", appErr)
		h.WriteAppError(w, appErr)
		return
	}

	record, err := h.Service.Create(r.Context(), principal.UserID, dto)
	if err != nil {
		h.Logger.Error("CreateExpense: service error", "error", err, "user_id", principal.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateExpense: expense created successfully",
		"expense_id", record.ID,
		"user_id", principal.UserID)

	h.WriteJSON(w, http.StatusCreated, CreatedResponse{ID: record.ID})
}

func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	principal, ok := errors.PrincipalFromContext(r.Context())
	if !ok {
		h.Logger.Error("UpdateExpense: principal not found in context")
		h.WriteAppError(w, errors.ErrMissingToken)
		return
	}

	id := chi.URLParam(r, "id")

	var dto RecordFieldsDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.Logger.Warn("UpdateExpense: invalid request body", "error", appErr)
		h.WriteAppError(w, appErr)
		return
	}

	if err := h.Service.Update(r.Context(), principal.UserID, id, dto); err != nil {
		h.Logger.Error("UpdateExpense: service error", "error", err, "expense_id", id, "user_id", principal.UserID)
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	principal, ok := errors.PrincipalFromContext(r.Context())
	if !ok {
		h.Logger.Error("DeleteExpense: principal not found in context")
		h.WriteAppError(w, errors.ErrMissingToken)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.Service.Delete(r.Context(), principal.UserID, id); err != nil {
		h.Logger.Error("DeleteExpense: service error", "error", err, "expense_id", id, "user_id", principal.UserID)
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
