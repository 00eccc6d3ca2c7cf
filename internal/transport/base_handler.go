package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	errors "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response for a plain status and message.
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.WriteAppError(w, &errors.AppError{
		Type:       errorTypeForStatus(status),
		Code:       errors.ErrorCode(strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))),
		Message:    message,
		StatusCode: status,
	})
}

func (h *BaseHandler) WriteAppError(w http.ResponseWriter, appErr *errors.AppError) {
	if appErr.StatusCode >= http.StatusInternalServerError {
		h.Logger.Error("http error", "status", appErr.StatusCode, "code", appErr.Code, "error", appErr)
	} else {
		h.Logger.Debug("http error", "status", appErr.StatusCode, "code", appErr.Code, "message", appErr.Message)
	}
	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// HandleServiceError maps a service error onto an HTTP response. Anything
// that is not an AppError is reported as an opaque internal error.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := errors.IsAppError(err); ok {
		if appErr.StatusCode == 0 {
			appErr = appErr.WithCause(appErr.Cause)
			appErr.StatusCode = http.StatusInternalServerError
		}
		h.WriteAppError(w, appErr)
		return
	}
	h.WriteAppError(w, errors.NewInternalError("internal server error", err))
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst interface{}) *errors.AppError {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.NewValidationError("invalid request body", errors.ErrCodeInvalidRequest).WithCause(err)
	}
	return nil
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	return BearerToken(r)
}

func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[7:])
}

func errorTypeForStatus(status int) errors.ErrorType {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return errors.ErrorTypeValidation
	case http.StatusUnauthorized:
		return errors.ErrorTypeUnauthorized
	case http.StatusForbidden:
		return errors.ErrorTypeForbidden
	case http.StatusNotFound:
		return errors.ErrorTypeNotFound
	case http.StatusConflict:
		return errors.ErrorTypeConflict
	default:
		return errors.ErrorTypeInternal
	}
}
