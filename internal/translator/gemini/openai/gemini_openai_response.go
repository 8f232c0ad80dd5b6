// Package openai translates Gemini generateContent responses into canonical OpenAI chunks
// and OpenAI Chat Completions requests into Gemini requests.
package openai

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/gjson"
)

// functionCallIDCounter provides a process-wide unique counter for function call identifiers.
var functionCallIDCounter uint64

// ConvertGeminiResponseToOpenAI translates one Gemini response chunk into a canonical chunk.
// Complete non-streaming responses share the chunk shape and are accepted unchanged. Usage
// is recorded on every chunk but only forwarded with the chunk that carries the finish
// reason.
func ConvertGeminiResponseToOpenAI(_ context.Context, rawJSON []byte, state *translator.State) []translator.Event {
	if rawJSON == nil {
		if state.FinishReason != "" {
			return nil
		}
		state.FinishReason = "stop"
		d := baseDelta(state)
		d.FinishReason = state.FinishReason
		d.Usage = state.Usage
		return chunk(d)
	}

	if !gjson.ValidBytes(rawJSON) {
		state.Drop("invalid JSON")
		return nil
	}
	root := gjson.ParseBytes(rawJSON)
	candidate := root.Get("candidates.0")
	usage := root.Get("usageMetadata")
	if !candidate.Exists() && !usage.Exists() {
		state.Drop("chunk has neither candidates nor usageMetadata")
		return nil
	}

	if id := root.Get("responseId").String(); id != "" && state.MessageID == "" {
		state.MessageID = id
	}
	if model := root.Get("modelVersion").String(); model != "" {
		state.Model = model
	}
	if createTime := root.Get("createTime"); createTime.Exists() && state.CreatedAt == 0 {
		if t, err := time.Parse(time.RFC3339Nano, createTime.String()); err == nil {
			state.CreatedAt = t.Unix()
		}
	}
	if usage.Exists() {
		state.RecordUsage(parseGeminiUsage(usage))
	}

	d := baseDelta(state)
	if !state.Started {
		state.Started = true
		d.Role = "assistant"
	}

	var text, reasoning strings.Builder
	candidate.Get("content.parts").ForEach(func(_, part gjson.Result) bool {
		switch {
		case part.Get("functionCall").Exists():
			fc := part.Get("functionCall")
			name := fc.Get("name").String()
			args := fc.Get("args").Raw
			if args == "" {
				args = "{}"
			}
			d.ToolCalls = append(d.ToolCalls, translator.ToolCallDelta{
				Index:     state.ToolCallCount,
				ID:        fmt.Sprintf("%s-%d-%d", name, time.Now().UnixNano(), atomic.AddUint64(&functionCallIDCounter, 1)),
				Name:      name,
				Arguments: args,
			})
			state.ToolCallCount++
		case part.Get("text").Exists():
			if part.Get("thought").Bool() {
				reasoning.WriteString(part.Get("text").String())
			} else {
				text.WriteString(part.Get("text").String())
			}
		}
		return true
	})
	d.Content = text.String()
	d.Reasoning = reasoning.String()

	if finish := candidate.Get("finishReason").String(); finish != "" {
		state.FinishReason = mapGeminiFinishReasonToOpenAI(finish, state.ToolCallCount > 0)
		d.FinishReason = state.FinishReason
		d.Usage = state.Usage
	}

	if d.Role == "" && d.Content == "" && d.Reasoning == "" && len(d.ToolCalls) == 0 && d.FinishReason == "" {
		return nil
	}
	return chunk(d)
}

func baseDelta(state *translator.State) translator.Delta {
	if state.CreatedAt == 0 {
		state.CreatedAt = time.Now().Unix()
	}
	return translator.Delta{ID: state.MessageID, CreatedAt: state.CreatedAt, Model: state.Model}
}

func chunk(d translator.Delta) []translator.Event {
	return []translator.Event{{Data: d.MarshalChunk()}}
}

func parseGeminiUsage(usage gjson.Result) translator.Usage {
	thoughts := usage.Get("thoughtsTokenCount").Int()
	return translator.Usage{
		PromptTokens:     usage.Get("promptTokenCount").Int(),
		CompletionTokens: usage.Get("candidatesTokenCount").Int() + thoughts,
		TotalTokens:      usage.Get("totalTokenCount").Int(),
		CachedTokens:     usage.Get("cachedContentTokenCount").Int(),
		ReasoningTokens:  thoughts,
	}
}

func mapGeminiFinishReasonToOpenAI(reason string, sawToolCall bool) string {
	switch strings.ToUpper(reason) {
	case "STOP", "FINISH_REASON_UNSPECIFIED":
		if sawToolCall {
			return "tool_calls"
		}
		return "stop"
	case "MAX_TOKENS":
		return "length"
	case "SAFETY", "RECITATION", "BLOCKLIST", "PROHIBITED_CONTENT", "SPII", "IMAGE_SAFETY":
		return "content_filter"
	case "MALFORMED_FUNCTION_CALL":
		return "tool_calls"
	default:
		return "stop"
	}
}
