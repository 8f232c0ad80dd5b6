// Package gemini translates the canonical OpenAI chunk stream into Gemini generateContent
// chunks, and Gemini requests into OpenAI Chat Completions requests.
package gemini

import (
	"context"

	"github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ConvertOpenAIResponseToGemini converts one canonical chunk into at most one Gemini chunk.
// Text and reasoning are forwarded as they arrive. Tool call fragments are accumulated and
// emitted as complete functionCall parts together with the finish reason, because Gemini
// carries arguments as a whole object. Usage appears on the terminal chunk only, so a finish
// reason without usage holds the terminal chunk back until the usage-only chunk or the flush.
func ConvertOpenAIResponseToGemini(_ context.Context, rawJSON []byte, state *translator.State) []translator.Event {
	if rawJSON == nil {
		if state.Terminated {
			return nil
		}
		return []translator.Event{{Data: terminalChunk(state)}}
	}

	delta, ok := translator.ParseDelta(rawJSON)
	if !ok {
		state.Drop("chunk has neither choices nor usage")
		return nil
	}
	if delta.Usage != nil {
		state.RecordUsage(*delta.Usage)
	}
	if state.Terminated {
		return nil
	}
	if state.AwaitingUsage {
		if delta.Usage == nil {
			return nil
		}
		return []translator.Event{{Data: terminalChunk(state)}}
	}
	if delta.Model != "" {
		state.Model = delta.Model
	}
	if delta.ID != "" && state.MessageID == "" {
		state.MessageID = delta.ID
	}
	state.Started = true

	for _, tc := range delta.ToolCalls {
		call, _ := state.ToolCall(tc.Index)
		if tc.ID != "" {
			call.ID = tc.ID
		}
		if tc.Name != "" {
			call.Name = tc.Name
		}
		call.Arguments.WriteString(tc.Arguments)
	}

	if delta.FinishReason != "" {
		state.FinishReason = delta.FinishReason
		if state.Usage == nil {
			state.AwaitingUsage = true
			if delta.Content == "" && delta.Reasoning == "" {
				return nil
			}
			return []translator.Event{{Data: prependParts(baseChunk(state), delta)}}
		}
		out := terminalChunk(state)
		out = prependParts(out, delta)
		return []translator.Event{{Data: out}}
	}

	if delta.Content == "" && delta.Reasoning == "" {
		return nil
	}
	out := baseChunk(state)
	out = prependParts(out, delta)
	return []translator.Event{{Data: out}}
}

func baseChunk(state *translator.State) []byte {
	out := []byte(`{"candidates":[{"content":{"parts":[],"role":"model"},"index":0}]}`)
	if state.Model != "" {
		out, _ = sjson.SetBytes(out, "modelVersion", state.Model)
	}
	if state.MessageID != "" {
		out, _ = sjson.SetBytes(out, "responseId", state.MessageID)
	}
	return out
}

// prependParts adds the reasoning and text of delta ahead of any parts already present.
func prependParts(chunk []byte, delta translator.Delta) []byte {
	parts := []byte(`[]`)
	if delta.Reasoning != "" {
		part := []byte(`{"thought":true,"text":""}`)
		part, _ = sjson.SetBytes(part, "text", delta.Reasoning)
		parts, _ = sjson.SetRawBytes(parts, "-1", part)
	}
	if delta.Content != "" {
		part := []byte(`{"text":""}`)
		part, _ = sjson.SetBytes(part, "text", delta.Content)
		parts, _ = sjson.SetRawBytes(parts, "-1", part)
	}
	gjson.GetBytes(chunk, "candidates.0.content.parts").ForEach(func(_, existing gjson.Result) bool {
		parts, _ = sjson.SetRawBytes(parts, "-1", []byte(existing.Raw))
		return true
	})
	chunk, _ = sjson.SetRawBytes(chunk, "candidates.0.content.parts", parts)
	return chunk
}

// terminalChunk renders the accumulated tool calls, the finish reason and the usage.
func terminalChunk(state *translator.State) []byte {
	out := baseChunk(state)
	for _, idx := range state.ToolIndexes() {
		call := state.ToolCalls[idx]
		part := []byte(`{"functionCall":{"name":"","args":{}}}`)
		part, _ = sjson.SetBytes(part, "functionCall.name", call.Name)
		if args := call.Arguments.String(); gjson.Valid(args) && gjson.Parse(args).IsObject() {
			part, _ = sjson.SetRawBytes(part, "functionCall.args", []byte(args))
		}
		out, _ = sjson.SetRawBytes(out, "candidates.0.content.parts.-1", part)
	}
	out, _ = sjson.SetBytes(out, "candidates.0.finishReason", mapOpenAIFinishReasonToGemini(state.FinishOrDefault()))
	if state.Usage != nil {
		out, _ = sjson.SetBytes(out, "usageMetadata.promptTokenCount", state.Usage.PromptTokens)
		out, _ = sjson.SetBytes(out, "usageMetadata.candidatesTokenCount", state.Usage.CompletionTokens-state.Usage.ReasoningTokens)
		out, _ = sjson.SetBytes(out, "usageMetadata.totalTokenCount", state.Usage.Total())
		if state.Usage.ReasoningTokens > 0 {
			out, _ = sjson.SetBytes(out, "usageMetadata.thoughtsTokenCount", state.Usage.ReasoningTokens)
		}
		if state.Usage.CachedTokens > 0 {
			out, _ = sjson.SetBytes(out, "usageMetadata.cachedContentTokenCount", state.Usage.CachedTokens)
		}
	}
	state.AwaitingUsage = false
	state.Terminated = true
	return out
}

func mapOpenAIFinishReasonToGemini(reason string) string {
	switch reason {
	case "length":
		return "MAX_TOKENS"
	case "content_filter":
		return "SAFETY"
	default:
		return "STOP"
	}
}
