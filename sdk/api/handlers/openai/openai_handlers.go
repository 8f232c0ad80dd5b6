// Package openai provides the OpenAI chat completions surface. The canonical format is
// OpenAI's, so requests pass to the executor without request-side conversion.
package openai

import (
	"github.com/gin-gonic/gin"
	"github.com/streambridge/streambridge/sdk/api/handlers"
	sdktranslator "github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/gjson"
)

// OpenAIAPIHandler contains the handlers for OpenAI API endpoints.
type OpenAIAPIHandler struct {
	*handlers.BaseAPIHandler
}

// NewOpenAIAPIHandler creates a new OpenAI API handlers instance.
func NewOpenAIAPIHandler(apiHandlers *handlers.BaseAPIHandler) *OpenAIAPIHandler {
	return &OpenAIAPIHandler{BaseAPIHandler: apiHandlers}
}

// HandlerType returns the wire format served by this handler.
func (h *OpenAIAPIHandler) HandlerType() sdktranslator.Format {
	return sdktranslator.FormatOpenAI
}

// ChatCompletions handles POST /v1/chat/completions.
func (h *OpenAIAPIHandler) ChatCompletions(c *gin.Context) {
	rawJSON, err := c.GetRawData()
	if err != nil {
		h.BadRequest(c, "Invalid request: %v", err)
		return
	}
	if !gjson.ValidBytes(rawJSON) {
		h.BadRequest(c, "Invalid request: body is not valid JSON")
		return
	}
	model := gjson.GetBytes(rawJSON, "model").String()
	if model == "" {
		h.BadRequest(c, "Invalid request: model is required")
		return
	}
	stream := gjson.GetBytes(rawJSON, "stream").Bool()
	h.Handle(c, h.HandlerType(), model, rawJSON, stream)
}
