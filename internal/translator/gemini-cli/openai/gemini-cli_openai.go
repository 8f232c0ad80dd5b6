// Package openai translates between OpenAI Chat Completions and the Gemini CLI Cloud Code
// protocol, which wraps Gemini requests under "request" and responses under "response".
package openai

import (
	"context"

	"github.com/streambridge/streambridge/internal/translator/gemini/common"
	geminiopenai "github.com/streambridge/streambridge/internal/translator/gemini/openai"
	"github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/sjson"
)

// ConvertOpenAIRequestToGeminiCLI builds the Gemini request and nests it in the Cloud Code
// envelope.
func ConvertOpenAIRequestToGeminiCLI(modelName string, inputRawJSON []byte, stream bool) []byte {
	inner := geminiopenai.ConvertOpenAIRequestToGemini(modelName, inputRawJSON, stream)
	inner, _ = sjson.DeleteBytes(inner, "model")
	out := []byte(`{"model":"","request":{}}`)
	out, _ = sjson.SetBytes(out, "model", modelName)
	out, _ = sjson.SetRawBytes(out, "request", inner)
	return out
}

// ConvertGeminiCLIResponseToOpenAI unwraps the "response" envelope and converts the inner
// Gemini chunk into canonical chunks.
func ConvertGeminiCLIResponseToOpenAI(ctx context.Context, rawJSON []byte, state *translator.State) []translator.Event {
	if rawJSON == nil {
		return geminiopenai.ConvertGeminiResponseToOpenAI(ctx, nil, state)
	}
	return geminiopenai.ConvertGeminiResponseToOpenAI(ctx, common.UnwrapEnvelope(rawJSON), state)
}
