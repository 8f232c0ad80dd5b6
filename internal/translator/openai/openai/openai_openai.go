// Package openai provides the canonical passthrough: chunks are forwarded unchanged, except
// that complete chat.completion objects are reshaped into a single chunk.
package openai

import (
	"context"

	"github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ConvertOpenAIResponseToOpenAI forwards each chunk as one event. On flush a finish chunk is
// synthesized only when the upstream never reported a finish reason.
func ConvertOpenAIResponseToOpenAI(_ context.Context, rawJSON []byte, state *translator.State) []translator.Event {
	if rawJSON == nil {
		if state.FinishReason != "" {
			return nil
		}
		state.FinishReason = "stop"
		d := translator.Delta{ID: state.MessageID, CreatedAt: state.CreatedAt, Model: state.Model, FinishReason: state.FinishReason, Usage: state.Usage}
		return []translator.Event{{Data: d.MarshalChunk()}}
	}

	delta, ok := translator.ParseDelta(rawJSON)
	if !ok {
		state.Drop("chunk has neither choices nor usage")
		return nil
	}
	if delta.ID != "" {
		state.MessageID = delta.ID
	}
	if delta.Model != "" {
		state.Model = delta.Model
	}
	if delta.CreatedAt != 0 {
		state.CreatedAt = delta.CreatedAt
	}
	if delta.Usage != nil {
		state.RecordUsage(*delta.Usage)
	}
	if delta.FinishReason != "" {
		state.FinishReason = delta.FinishReason
	}
	state.Started = true

	out := rawJSON
	if message := gjson.GetBytes(rawJSON, "choices.0.message"); message.Exists() && !gjson.GetBytes(rawJSON, "choices.0.delta").Exists() {
		out, _ = sjson.SetBytes(out, "object", "chat.completion.chunk")
		out, _ = sjson.SetRawBytes(out, "choices.0.delta", []byte(message.Raw))
		out, _ = sjson.DeleteBytes(out, "choices.0.message")
	}
	return []translator.Event{{Data: out}}
}
