package user

import (
	"context"
	"log/slog"
	"net/http"

	apperrors "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/transport"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
)

type ServiceAPI interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	UpdateProfile(ctx context.Context, userID string, dto UpdateProfileDTO) (*Profile, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := apperrors.PrincipalFromContext(r.Context())
	if !ok {
		h.Logger.Error("GetCurrentUser: principal not found in context")
		h.WriteAppError(w, apperrors.ErrMissingToken)
		return
	}

	profile, err := h.Service.GetProfile(r.Context(), principal.UserID)
	if err != nil {
		h.Logger.Error("GetCurrentUser: service error", "user_id", principal.UserID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, profile)
}

// UpdateCurrentUser handles PATCH /users/me
func (h *Handler) UpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := apperrors.PrincipalFromContext(r.Context())
	if !ok {
		h.Logger.Error("UpdateCurrentUser: principal not found in context")
		h.WriteAppError(w, apperrors.ErrMissingToken)
		return
	}

	var dto UpdateProfileDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	profile, err := h.Service.UpdateProfile(r.Context(), principal.UserID, dto)
	if err != nil {
		h.Logger.Error("UpdateCurrentUser: service error", "user_id", principal.UserID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, profile)
}
