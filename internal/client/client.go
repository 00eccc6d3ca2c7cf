// Package client talks to the expense tracker backend over HTTP. It provides
// the identity provider and document store the tracker runs against.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

const traceIDHeader = "X-Trace-ID"

// APIError is an error body returned by the backend.
type APIError struct {
	Status  int
	Type    string
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

type errorEnvelope struct {
	Error struct {
		Type    string          `json:"type"`
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

type validationDetails struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Client is a thin JSON-over-HTTP client for the /api/v1 routes.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout}, logger)
}

func NewWithHTTPClient(baseURL string, hc *http.Client, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		logger:  logger,
	}
}

// do sends in as JSON and decodes a 2xx body into out. Non-2xx responses come
// back as *APIError.
func (c *Client) do(ctx context.Context, method, path, token string, in, out interface{}) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "client "+method+" "+path)
	defer span.Finish()
	ext.SpanKindRPCClient.Set(span)
	ext.HTTPMethod.Set(span, method)

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(traceIDHeader, uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if err := span.Tracer().Inject(span.Context(), opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(req.Header)); err != nil {
		c.logger.Debug("trace context not injected", "method", method, "path", path, "error", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		ext.Error.Set(span, true)
		c.logger.Debug("request failed", "method", method, "path", path, "error", err)
		return err
	}
	defer resp.Body.Close()

	ext.HTTPStatusCode.Set(span, uint16(resp.StatusCode))
	c.logger.Debug("request done",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"trace_id", req.Header.Get(traceIDHeader))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ext.Error.Set(span, true)
		return decodeAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		apiErr.Message = strings.TrimSpace(string(raw))
		return apiErr
	}

	apiErr.Type = env.Error.Type
	apiErr.Code = env.Error.Code
	apiErr.Message = env.Error.Message

	// a generic validation failure is better explained by its field errors
	var details validationDetails
	if env.Error.Code == "VALIDATION_FAILED" && len(env.Error.Details) > 0 && json.Unmarshal(env.Error.Details, &details) == nil && len(details.Errors) > 0 {
		msgs := make([]string, len(details.Errors))
		for i, d := range details.Errors {
			msgs[i] = d.Message
		}
		apiErr.Message = strings.Join(msgs, "; ")
	}
	return apiErr
}
