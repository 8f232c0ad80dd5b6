// Package claude provides the Anthropic passthrough. Events are forwarded unchanged while
// block bookkeeping is kept so that a flush can close whatever the upstream left open.
package claude

import (
	"context"

	"github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ConvertClaudeResponseToClaude forwards one Anthropic event payload.
func ConvertClaudeResponseToClaude(_ context.Context, rawJSON []byte, state *translator.State) []translator.Event {
	if rawJSON == nil {
		return flush(state)
	}
	if !gjson.ValidBytes(rawJSON) {
		state.Drop("invalid JSON")
		return nil
	}
	eventType := gjson.GetBytes(rawJSON, "type").String()
	switch eventType {
	case "":
		state.Drop("event without type")
		return nil
	case "message_start":
		state.Started = true
		state.MessageID = gjson.GetBytes(rawJSON, "message.id").String()
		if model := gjson.GetBytes(rawJSON, "message.model").String(); model != "" {
			state.Model = model
		}
	case "content_block_start":
		idx := int(gjson.GetBytes(rawJSON, "index").Int())
		state.OpenBlocks[idx] = kindOf(gjson.GetBytes(rawJSON, "content_block.type").String())
		if idx >= state.NextBlockIndex {
			state.NextBlockIndex = idx + 1
		}
	case "content_block_stop":
		state.CloseBlock(int(gjson.GetBytes(rawJSON, "index").Int()))
	case "message_delta":
		if stop := gjson.GetBytes(rawJSON, "delta.stop_reason").String(); stop != "" {
			state.FinishReason = stop
		}
		if usage := gjson.GetBytes(rawJSON, "usage"); usage.Exists() {
			state.RecordUsage(translator.Usage{
				PromptTokens:     usage.Get("input_tokens").Int(),
				CompletionTokens: usage.Get("output_tokens").Int(),
			})
		}
	case "message_stop":
		state.Terminated = true
	}
	return []translator.Event{{Type: eventType, Data: rawJSON}}
}

func flush(state *translator.State) []translator.Event {
	var events []translator.Event
	if !state.Started {
		out := `{"type":"message_start","message":{"id":"","type":"message","role":"assistant","model":"","content":[],"stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":0,"output_tokens":0}}}`
		out, _ = sjson.Set(out, "message.model", state.Model)
		events = append(events, translator.Event{Type: "message_start", Data: []byte(out)})
	}
	for _, idx := range state.OpenIndexes() {
		state.CloseBlock(idx)
		out, _ := sjson.Set(`{"type":"content_block_stop","index":0}`, "index", idx)
		events = append(events, translator.Event{Type: "content_block_stop", Data: []byte(out)})
	}
	if state.FinishReason == "" {
		state.FinishReason = "end_turn"
		events = append(events, translator.Event{Type: "message_delta", Data: []byte(`{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":0}}`)})
	}
	return append(events, translator.Event{Type: "message_stop", Data: []byte(`{"type":"message_stop"}`)})
}

func kindOf(blockType string) translator.BlockKind {
	switch blockType {
	case "thinking", "redacted_thinking":
		return translator.BlockThinking
	case "tool_use", "server_tool_use":
		return translator.BlockToolUse
	default:
		return translator.BlockText
	}
}
