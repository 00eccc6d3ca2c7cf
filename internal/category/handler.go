package category

import (
	"context"
	"net/http"

	apperrors "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/transport"
)

type ServiceAPI interface {
	Suggestions(ctx context.Context, userID string) ([]CategoryResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	principal, ok := apperrors.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, apperrors.ErrMissingToken)
		return
	}

	categories, err := h.Service.Suggestions(r.Context(), principal.UserID)
	if err != nil {
		h.Logger.Error("GetCategories: failed to get categories", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, CategoriesResponse{
		Categories: categories,
	})
}
