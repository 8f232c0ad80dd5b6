// Package gemini provides the Gemini generateContent surface. The model and method are
// carried in the path as models/{model}:{method}.
package gemini

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/streambridge/streambridge/internal/runtime/executor"
	"github.com/streambridge/streambridge/sdk/api/handlers"
	sdktranslator "github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/gjson"
)

// GeminiAPIHandler contains the handlers for Gemini API endpoints.
type GeminiAPIHandler struct {
	*handlers.BaseAPIHandler
}

// NewGeminiAPIHandler creates a new Gemini API handlers instance.
func NewGeminiAPIHandler(apiHandlers *handlers.BaseAPIHandler) *GeminiAPIHandler {
	return &GeminiAPIHandler{BaseAPIHandler: apiHandlers}
}

// HandlerType returns the wire format served by this handler.
func (h *GeminiAPIHandler) HandlerType() sdktranslator.Format {
	return sdktranslator.FormatGemini
}

// GeminiHandler handles POST /v1beta/models/*action and dispatches on the method suffix.
func (h *GeminiAPIHandler) GeminiHandler(c *gin.Context) {
	var request struct {
		Action string `uri:"action" binding:"required"`
	}
	if err := c.ShouldBindUri(&request); err != nil {
		h.BadRequest(c, "Invalid request: %v", err)
		return
	}
	model, method, ok := ParseAction(request.Action)
	if !ok {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{Error: handlers.ErrorDetail{
			Message: "Not Found",
			Type:    "not_found",
		}})
		return
	}

	rawJSON, err := c.GetRawData()
	if err != nil {
		h.BadRequest(c, "Invalid request: %v", err)
		return
	}
	if !gjson.ValidBytes(rawJSON) {
		h.BadRequest(c, "Invalid request: body is not valid JSON")
		return
	}

	switch method {
	case "generateContent":
		h.Handle(c, h.HandlerType(), model, rawJSON, false)
	case "streamGenerateContent":
		h.Handle(c, h.HandlerType(), model, rawJSON, true)
	case "countTokens":
		canonical := sdktranslator.TranslateRequest(h.HandlerType(), sdktranslator.Canonical, model, rawJSON, false)
		usage := executor.EstimateUsage(model, canonical, "")
		c.JSON(http.StatusOK, gin.H{"totalTokens": usage.PromptTokens})
	default:
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{Error: handlers.ErrorDetail{
			Message: "unsupported method " + method,
			Type:    "not_found",
		}})
	}
}

// ParseAction splits "/gemini-2.5-pro:streamGenerateContent" into model and method.
func ParseAction(action string) (model, method string, ok bool) {
	action = strings.TrimPrefix(strings.TrimSpace(action), "/")
	action = strings.TrimPrefix(action, "models/")
	idx := strings.LastIndex(action, ":")
	if idx <= 0 || idx == len(action)-1 {
		return "", "", false
	}
	return action[:idx], action[idx+1:], true
}
