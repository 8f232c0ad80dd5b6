// Package translator provides the cross-protocol streaming translation engine: format
// descriptors, the per-stream translation state, the converter registry, the SSE encoder
// and the non-streaming aggregator.
package translator

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Event is one protocol-native output unit produced by a stream converter.
type Event struct {
	// Type is the protocol event name ("message_start", "content_block_delta", ...).
	// It is empty for chunk protocols.
	Type string
	// Data is the JSON payload of the event.
	Data []byte
}

// StreamConverter turns one source payload into zero or more target events.
// A nil rawJSON is the end-of-stream flush.
type StreamConverter func(ctx context.Context, rawJSON []byte, state *State) []Event

// RequestConverter converts a request payload from a source schema to a target schema.
type RequestConverter func(model string, rawJSON []byte, stream bool) []byte

// Aggregator collapses the ordered events of one stream into a final response object.
// The state may be nil when the caller only holds the events.
type Aggregator func(events []Event, state *State) []byte

// Usage carries token accounting for a completion.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
	CachedTokens     int64
	ReasoningTokens  int64
}

// Total returns TotalTokens, deriving it from prompt and completion counts when unset.
func (u Usage) Total() int64 {
	if u.TotalTokens > 0 {
		return u.TotalTokens
	}
	return u.PromptTokens + u.CompletionTokens
}

// ParseOpenAIUsage reads an OpenAI usage object.
func ParseOpenAIUsage(usage gjson.Result) Usage {
	u := Usage{
		PromptTokens:     usage.Get("prompt_tokens").Int(),
		CompletionTokens: usage.Get("completion_tokens").Int(),
		TotalTokens:      usage.Get("total_tokens").Int(),
		CachedTokens:     usage.Get("prompt_tokens_details.cached_tokens").Int(),
		ReasoningTokens:  usage.Get("completion_tokens_details.reasoning_tokens").Int(),
	}
	return u
}

// OpenAIJSON renders the usage as an OpenAI usage object.
func (u Usage) OpenAIJSON() string {
	out := `{"prompt_tokens":0,"completion_tokens":0,"total_tokens":0}`
	out, _ = sjson.Set(out, "prompt_tokens", u.PromptTokens)
	out, _ = sjson.Set(out, "completion_tokens", u.CompletionTokens)
	out, _ = sjson.Set(out, "total_tokens", u.Total())
	if u.CachedTokens > 0 {
		out, _ = sjson.Set(out, "prompt_tokens_details.cached_tokens", u.CachedTokens)
	}
	if u.ReasoningTokens > 0 {
		out, _ = sjson.Set(out, "completion_tokens_details.reasoning_tokens", u.ReasoningTokens)
	}
	return out
}

// ToolCallDelta is an incremental fragment of one tool invocation.
type ToolCallDelta struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

// Delta is the canonical incremental completion update. On the wire it is an OpenAI
// chat.completion.chunk; this struct is its parsed form.
type Delta struct {
	ID           string
	CreatedAt    int64
	Model        string
	Index        int
	Role         string
	Content      string
	Reasoning    string
	ToolCalls    []ToolCallDelta
	FinishReason string
	Usage        *Usage
	// HasChoice is false for usage-only chunks.
	HasChoice bool
}

// Empty reports whether the delta carries nothing a converter could emit.
func (d Delta) Empty() bool {
	return d.Role == "" && d.Content == "" && d.Reasoning == "" && len(d.ToolCalls) == 0 && d.FinishReason == "" && d.Usage == nil
}

// ParseDelta reads a canonical chunk. Full chat.completion objects are accepted too; their
// "message" is read as the delta. ok is false when the payload has neither a choice entry
// nor a usage object.
func ParseDelta(rawJSON []byte) (d Delta, ok bool) {
	if !gjson.ValidBytes(rawJSON) {
		return d, false
	}
	root := gjson.ParseBytes(rawJSON)
	if !root.IsObject() {
		return d, false
	}
	d.ID = root.Get("id").String()
	d.CreatedAt = root.Get("created").Int()
	d.Model = root.Get("model").String()
	if usage := root.Get("usage"); usage.IsObject() {
		u := ParseOpenAIUsage(usage)
		d.Usage = &u
	}

	choice := root.Get("choices.0")
	if !choice.Exists() || !choice.IsObject() {
		return d, d.Usage != nil
	}
	d.HasChoice = true
	d.Index = int(choice.Get("index").Int())
	delta := choice.Get("delta")
	if !delta.Exists() {
		delta = choice.Get("message")
	}
	d.Role = delta.Get("role").String()

	content := delta.Get("content")
	switch {
	case content.Type == gjson.String:
		d.Content = content.String()
	case content.IsArray():
		var sb strings.Builder
		content.ForEach(func(_, part gjson.Result) bool {
			if part.Get("type").String() == "text" {
				sb.WriteString(part.Get("text").String())
			}
			return true
		})
		d.Content = sb.String()
	}

	if reasoning := delta.Get("reasoning_content"); reasoning.Type == gjson.String {
		d.Reasoning = reasoning.String()
	} else if reasoning = delta.Get("reasoning"); reasoning.Type == gjson.String {
		d.Reasoning = reasoning.String()
	}

	if toolCalls := delta.Get("tool_calls"); toolCalls.IsArray() {
		position := 0
		toolCalls.ForEach(func(_, tc gjson.Result) bool {
			call := ToolCallDelta{
				Index: position,
				ID:    tc.Get("id").String(),
				Name:  tc.Get("function.name").String(),
			}
			if idx := tc.Get("index"); idx.Exists() {
				call.Index = int(idx.Int())
			}
			args := tc.Get("function.arguments")
			if args.IsObject() {
				call.Arguments = args.Raw
			} else {
				call.Arguments = args.String()
			}
			d.ToolCalls = append(d.ToolCalls, call)
			position++
			return true
		})
	}

	if finish := choice.Get("finish_reason"); finish.Type == gjson.String {
		d.FinishReason = finish.String()
	}
	return d, true
}

// MarshalChunk renders the delta as an OpenAI chat.completion.chunk.
func (d Delta) MarshalChunk() []byte {
	out := `{"id":"","object":"chat.completion.chunk","created":0,"model":"","choices":[{"index":0,"delta":{},"finish_reason":null}]}`
	out, _ = sjson.Set(out, "id", d.ID)
	out, _ = sjson.Set(out, "created", d.CreatedAt)
	out, _ = sjson.Set(out, "model", d.Model)
	out, _ = sjson.Set(out, "choices.0.index", d.Index)
	if d.Role != "" {
		out, _ = sjson.Set(out, "choices.0.delta.role", d.Role)
	}
	if d.Content != "" {
		out, _ = sjson.Set(out, "choices.0.delta.content", d.Content)
	}
	if d.Reasoning != "" {
		out, _ = sjson.Set(out, "choices.0.delta.reasoning_content", d.Reasoning)
	}
	for _, tc := range d.ToolCalls {
		call := `{"index":0,"function":{"arguments":""}}`
		call, _ = sjson.Set(call, "index", tc.Index)
		if tc.ID != "" || tc.Name != "" {
			call, _ = sjson.Set(call, "id", tc.ID)
			call, _ = sjson.Set(call, "type", "function")
			call, _ = sjson.Set(call, "function.name", tc.Name)
		}
		call, _ = sjson.Set(call, "function.arguments", tc.Arguments)
		out, _ = sjson.SetRaw(out, "choices.0.delta.tool_calls.-1", call)
	}
	if d.FinishReason != "" {
		out, _ = sjson.Set(out, "choices.0.finish_reason", d.FinishReason)
	}
	if d.Usage != nil {
		out, _ = sjson.SetRaw(out, "usage", d.Usage.OpenAIJSON())
	}
	return []byte(out)
}
