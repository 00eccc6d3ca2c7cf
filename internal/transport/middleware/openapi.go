package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	apperrors "github.com/frahmantamala/expense-tracker/internal"
)

// MaxBodyBytes bounds every validated request body.
const MaxBodyBytes = 256 << 10

// BodyValidator checks JSON request bodies against the component schemas of
// an OpenAPI document before they reach a handler.
type BodyValidator struct {
	doc *openapi3.T
}

func NewBodyValidator(spec []byte) (*BodyValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return &BodyValidator{doc: doc}, nil
}

// Body validates against components/schemas/<schema>. Malformed JSON is left
// to the handler so it can answer with its own error.
func (v *BodyValidator) Body(schema string) func(http.Handler) http.Handler {
	ref, ok := v.doc.Components.Schemas[schema]
	if !ok || ref.Value == nil {
		panic(fmt.Sprintf("openapi: unknown schema %q", schema))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}

			raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
			_ = r.Body.Close()
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					writeValidationError(w, apperrors.ErrRequestTooLarge)
					return
				}
				writeValidationError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeInvalidRequest).WithCause(err))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(raw))

			var body interface{}
			if err := json.Unmarshal(raw, &body); err != nil {
				next.ServeHTTP(w, r)
				return
			}

			if err := ref.Value.VisitJSON(body); err != nil {
				writeValidationError(w, apperrors.NewValidationError("request body does not match schema", apperrors.ErrCodeValidationFailed).WithCause(err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeValidationError(w http.ResponseWriter, appErr *apperrors.AppError) {
	status, body := appErr.ToHTTPResponse()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
