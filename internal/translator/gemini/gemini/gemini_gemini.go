// Package gemini provides the passthrough converters of the Gemini family. Gemini CLI and
// Antigravity payloads are inspected through their "response" envelope but forwarded as is.
package gemini

import (
	"context"

	"github.com/streambridge/streambridge/internal/translator/gemini/common"
	"github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ConvertGeminiResponseToGemini forwards one Gemini chunk.
func ConvertGeminiResponseToGemini(_ context.Context, rawJSON []byte, state *translator.State) []translator.Event {
	if rawJSON == nil {
		if out := flush(state); out != nil {
			return []translator.Event{{Data: out}}
		}
		return nil
	}
	if !observe(rawJSON, state) {
		return nil
	}
	return []translator.Event{{Data: rawJSON}}
}

// ConvertEnvelopeResponseToEnvelope forwards one Gemini CLI or Antigravity chunk.
func ConvertEnvelopeResponseToEnvelope(_ context.Context, rawJSON []byte, state *translator.State) []translator.Event {
	if rawJSON == nil {
		if out := flush(state); out != nil {
			return []translator.Event{{Data: common.WrapEnvelope(out)}}
		}
		return nil
	}
	if !observe(common.UnwrapEnvelope(rawJSON), state) {
		return nil
	}
	return []translator.Event{{Data: rawJSON}}
}

// observe records finish reason and usage, dropping chunks that are not Gemini responses.
func observe(rawJSON []byte, state *translator.State) bool {
	if !gjson.ValidBytes(rawJSON) {
		state.Drop("invalid JSON")
		return false
	}
	root := gjson.ParseBytes(rawJSON)
	if !root.Get("candidates").Exists() && !root.Get("usageMetadata").Exists() {
		state.Drop("chunk has neither candidates nor usageMetadata")
		return false
	}
	state.Started = true
	if model := root.Get("modelVersion").String(); model != "" {
		state.Model = model
	}
	if finish := root.Get("candidates.0.finishReason").String(); finish != "" {
		state.FinishReason = finish
	}
	if usage := root.Get("usageMetadata"); usage.Exists() {
		state.RecordUsage(translator.Usage{
			PromptTokens:     usage.Get("promptTokenCount").Int(),
			CompletionTokens: usage.Get("candidatesTokenCount").Int(),
			TotalTokens:      usage.Get("totalTokenCount").Int(),
		})
	}
	return true
}

func flush(state *translator.State) []byte {
	if state.FinishReason != "" {
		return nil
	}
	state.FinishReason = "STOP"
	out := []byte(`{"candidates":[{"content":{"parts":[],"role":"model"},"finishReason":"STOP","index":0}]}`)
	if state.Model != "" {
		out, _ = sjson.SetBytes(out, "modelVersion", state.Model)
	}
	return out
}
