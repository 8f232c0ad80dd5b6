// Package handlers provides the gin handlers shared by the OpenAI, Anthropic and Gemini
// client surfaces. Each surface extracts the model and streaming flag from its own
// request shape and hands the raw body to an Executor tagged with its wire format.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/streambridge/streambridge/internal/logging"
	"github.com/streambridge/streambridge/internal/util"
	cliproxyexecutor "github.com/streambridge/streambridge/sdk/cliproxy/executor"
	"github.com/streambridge/streambridge/sdk/config"
	sdktranslator "github.com/streambridge/streambridge/sdk/translator"
)

// ErrorResponse represents a standard error response format for the API.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail provides specific information about an error that occurred.
type ErrorDetail struct {
	// Message is a human-readable message providing more details about the error.
	Message string `json:"message"`

	// Type is the category of error that occurred (e.g., "invalid_request_error").
	Type string `json:"type"`

	// Code is a short code identifying the error, if applicable.
	Code string `json:"code,omitempty"`
}

// Executor runs one gateway request. *cliproxy.Service implements it.
type Executor interface {
	Execute(ctx context.Context, req cliproxyexecutor.Request) (*cliproxyexecutor.Response, error)
}

// BaseAPIHandler holds what every surface handler needs.
type BaseAPIHandler struct {
	// cfg is swapped on reload while requests are reading it.
	cfg atomic.Pointer[config.SDKConfig]

	// Executor runs requests.
	Executor Executor
}

// NewBaseAPIHandlers creates a new API handlers instance.
//
// Parameters:
//   - cfg: the SDK configuration, replaced later through UpdateClients
//   - executor: runs every request the surfaces accept
//
// Returns:
//   - *BaseAPIHandler: the shared handler state
func NewBaseAPIHandlers(cfg *config.SDKConfig, executor Executor) *BaseAPIHandler {
	h := &BaseAPIHandler{Executor: executor}
	h.cfg.Store(cfg)
	return h
}

// Config returns the configuration currently in effect.
func (h *BaseAPIHandler) Config() *config.SDKConfig { return h.cfg.Load() }

// UpdateClients swaps in a reloaded configuration.
func (h *BaseAPIHandler) UpdateClients(cfg *config.SDKConfig) { h.cfg.Store(cfg) }

// BuildErrorResponseBody renders an OpenAI-style error object. A message that is
// already valid JSON (typically an upstream error body) is passed through unchanged.
func BuildErrorResponseBody(status int, errText string) []byte {
	if status <= 0 {
		status = http.StatusInternalServerError
	}
	trimmed := strings.TrimSpace(errText)
	if trimmed == "" {
		trimmed = http.StatusText(status)
	}
	if json.Valid([]byte(trimmed)) && strings.HasPrefix(trimmed, "{") {
		return []byte(trimmed)
	}

	errType := "invalid_request_error"
	var code string
	switch status {
	case http.StatusUnauthorized:
		errType = "authentication_error"
		code = "invalid_api_key"
	case http.StatusForbidden:
		errType = "permission_error"
		code = "insufficient_quota"
	case http.StatusTooManyRequests:
		errType = "rate_limit_error"
		code = "rate_limit_exceeded"
	case http.StatusNotFound:
		code = "model_not_found"
	default:
		if status >= http.StatusInternalServerError {
			errType = "server_error"
			code = "internal_server_error"
		}
	}

	payload, err := json.Marshal(ErrorResponse{Error: ErrorDetail{Message: trimmed, Type: errType, Code: code}})
	if err != nil {
		return []byte(fmt.Sprintf(`{"error":{"message":%q,"type":"server_error","code":"internal_server_error"}}`, trimmed))
	}
	return payload
}

// StatusFromError maps an execution error onto the HTTP status returned to the client.
func StatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var unsupported *sdktranslator.UnsupportedFormatError
	if errors.As(err, &unsupported) {
		return http.StatusBadRequest
	}
	var configErr *cliproxyexecutor.ProviderConfigError
	if errors.As(err, &configErr) {
		return http.StatusInternalServerError
	}
	var se cliproxyexecutor.StatusError
	if errors.As(err, &se) {
		if code := se.StatusCode(); code > 0 {
			return code
		}
	}
	if errors.Is(err, context.Canceled) {
		return 499
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

// StreamingKeepAliveInterval returns the SSE keep-alive interval for this server.
// Returning 0 disables keep-alives (default when unset).
func StreamingKeepAliveInterval(cfg *config.SDKConfig) time.Duration {
	if cfg == nil || cfg.Streaming.KeepAliveSeconds <= 0 {
		return 0
	}
	return time.Duration(cfg.Streaming.KeepAliveSeconds) * time.Second
}

// WriteErrorResponse writes err as a JSON error body with the status it maps to.
func (h *BaseAPIHandler) WriteErrorResponse(c *gin.Context, err error) {
	status := StatusFromError(err)
	errText := http.StatusText(status)
	if err != nil {
		if v := strings.TrimSpace(err.Error()); v != "" {
			errText = v
		}
	}
	body := BuildErrorResponseBody(status, errText)
	if !c.Writer.Written() {
		c.Writer.Header().Set("Content-Type", "application/json")
	}
	c.Status(status)
	_, _ = c.Writer.Write(body)
}

// BadRequest writes a 400 error for a body the surface could not parse.
func (h *BaseAPIHandler) BadRequest(c *gin.Context, format string, args ...any) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{
		Message: fmt.Sprintf(format, args...),
		Type:    "invalid_request_error",
	}})
}

// GetContextWithCancel derives the execution context of a request. It carries the
// gin request id and is cancelled when the client goes away.
func (h *BaseAPIHandler) GetContextWithCancel(c *gin.Context) (context.Context, context.CancelFunc) {
	ctx := c.Request.Context()
	if requestID := logging.GetGinRequestID(c); requestID != "" {
		ctx = logging.WithRequestID(ctx, requestID)
	}
	return context.WithCancel(ctx)
}

// Handle executes one request for a client surface and writes the result, streaming or not.
func (h *BaseAPIHandler) Handle(c *gin.Context, format sdktranslator.Format, model string, rawJSON []byte, stream bool) {
	ctx, cancel := h.GetContextWithCancel(c)
	defer cancel()

	resp, err := h.Executor.Execute(ctx, cliproxyexecutor.Request{
		Model:        model,
		Body:         rawJSON,
		SourceFormat: format,
		Stream:       stream,
	})
	if err != nil {
		logging.EntryFromContext(ctx).WithField("model", model).Warnf("request failed: %v", err)
		h.WriteErrorResponse(c, err)
		return
	}
	if resp.Credentials != nil {
		log.Debugf("credentials refreshed during request, access token %s", util.HideAPIKey(resp.Credentials.AccessToken))
	}

	for key, values := range resp.Headers {
		c.Writer.Header().Del(key)
		for _, v := range values {
			c.Writer.Header().Add(key, v)
		}
	}
	if resp.Stream == nil {
		c.Status(http.StatusOK)
		_, _ = c.Writer.Write(resp.Body)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		h.WriteErrorResponse(c, fmt.Errorf("streaming not supported"))
		return
	}
	c.Status(http.StatusOK)
	opts := StreamForwardOptions{
		WriteTerminalError: func(err error) {
			_, _ = c.Writer.Write(terminalErrorFrame(format, err))
		},
	}
	if format == sdktranslator.FormatClaude {
		opts.KeepAliveFrame = claudePingFrame
	}
	h.ForwardStream(c, flusher, cancel, resp.Stream, opts)
}

// claudePingFrame is the heartbeat Anthropic clients expect between events.
var claudePingFrame = []byte("event: ping\ndata: {\"type\":\"ping\"}\n\n")

// terminalErrorFrame renders a mid-stream error in the client's framing. Headers are
// already committed at that point so the status cannot change.
func terminalErrorFrame(format sdktranslator.Format, err error) []byte {
	body := BuildErrorResponseBody(StatusFromError(err), err.Error())
	if format == sdktranslator.FormatClaude {
		return []byte(fmt.Sprintf("event: error\ndata: %s\n\n", body))
	}
	return []byte(fmt.Sprintf("data: %s\n\n", body))
}
