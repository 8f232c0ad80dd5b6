// Package claude provides the Anthropic messages surface.
package claude

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streambridge/streambridge/internal/runtime/executor"
	"github.com/streambridge/streambridge/sdk/api/handlers"
	sdktranslator "github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/gjson"
)

// ClaudeCodeAPIHandler contains the handlers for Claude API endpoints.
type ClaudeCodeAPIHandler struct {
	*handlers.BaseAPIHandler
}

// NewClaudeCodeAPIHandler creates a new Claude API handlers instance.
func NewClaudeCodeAPIHandler(apiHandlers *handlers.BaseAPIHandler) *ClaudeCodeAPIHandler {
	return &ClaudeCodeAPIHandler{BaseAPIHandler: apiHandlers}
}

// HandlerType returns the wire format served by this handler.
func (h *ClaudeCodeAPIHandler) HandlerType() sdktranslator.Format {
	return sdktranslator.FormatClaude
}

// ClaudeMessages handles POST /v1/messages, streaming or not.
func (h *ClaudeCodeAPIHandler) ClaudeMessages(c *gin.Context) {
	rawJSON, ok := h.readBody(c)
	if !ok {
		return
	}
	stream := gjson.GetBytes(rawJSON, "stream").Bool()
	h.Handle(c, h.HandlerType(), gjson.GetBytes(rawJSON, "model").String(), rawJSON, stream)
}

// ClaudeCountTokens handles POST /v1/messages/count_tokens with a local estimate.
func (h *ClaudeCodeAPIHandler) ClaudeCountTokens(c *gin.Context) {
	rawJSON, ok := h.readBody(c)
	if !ok {
		return
	}
	model := gjson.GetBytes(rawJSON, "model").String()
	canonical := sdktranslator.TranslateRequest(h.HandlerType(), sdktranslator.Canonical, model, rawJSON, false)
	usage := executor.EstimateUsage(model, canonical, "")
	c.JSON(http.StatusOK, gin.H{"input_tokens": usage.PromptTokens})
}

func (h *ClaudeCodeAPIHandler) readBody(c *gin.Context) ([]byte, bool) {
	rawJSON, err := c.GetRawData()
	if err != nil {
		h.BadRequest(c, "Invalid request: %v", err)
		return nil, false
	}
	if !gjson.ValidBytes(rawJSON) {
		h.BadRequest(c, "Invalid request: body is not valid JSON")
		return nil, false
	}
	if gjson.GetBytes(rawJSON, "model").String() == "" {
		h.BadRequest(c, "Invalid request: model is required")
		return nil, false
	}
	return rawJSON, true
}
