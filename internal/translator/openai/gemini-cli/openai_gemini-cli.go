// Package geminicli translates the canonical OpenAI chunk stream into the Cloud Code
// "response" envelope used by Gemini CLI and Antigravity clients, and unwraps their
// requests into OpenAI Chat Completions requests.
package geminicli

import (
	"context"

	"github.com/streambridge/streambridge/internal/translator/gemini/common"
	"github.com/streambridge/streambridge/internal/translator/openai/gemini"
	"github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/gjson"
)

// ConvertGeminiCLIRequestToOpenAI reads the Gemini request nested under "request".
func ConvertGeminiCLIRequestToOpenAI(modelName string, inputRawJSON []byte, stream bool) []byte {
	inner := inputRawJSON
	if request := gjson.GetBytes(inputRawJSON, "request"); request.IsObject() {
		inner = []byte(request.Raw)
	}
	return gemini.ConvertGeminiRequestToOpenAI(modelName, inner, stream)
}

// ConvertOpenAIResponseToGeminiCLI wraps every Gemini chunk in the "response" envelope.
func ConvertOpenAIResponseToGeminiCLI(ctx context.Context, rawJSON []byte, state *translator.State) []translator.Event {
	events := gemini.ConvertOpenAIResponseToGemini(ctx, rawJSON, state)
	for i := range events {
		events[i].Data = common.WrapEnvelope(events[i].Data)
	}
	return events
}
