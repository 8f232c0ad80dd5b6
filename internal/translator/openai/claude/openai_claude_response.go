// Package claude provides response translation from the canonical OpenAI chunk stream into
// the Anthropic Messages event stream, and request translation from Anthropic requests
// into OpenAI Chat Completions requests.
package claude

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/sjson"
)

// ConvertOpenAIResponseToClaude converts one canonical chunk into Anthropic SSE events.
//
// The first chunk carrying a choice opens the message and its first content block. A chunk
// with a finish reason closes every open block. When usage is already known, message_delta
// and message_stop follow at once; otherwise they wait for the usage-only chunk OpenAI sends
// after the finish reason, or for the flush.
//
// Parameters:
//   - rawJSON: one canonical chunk, or nil to flush the stream
//   - state: the stream's translation state
//
// Returns:
//   - []translator.Event: Anthropic events in wire order
func ConvertOpenAIResponseToClaude(_ context.Context, rawJSON []byte, state *translator.State) []translator.Event {
	if rawJSON == nil {
		return flushClaude(state)
	}

	delta, ok := translator.ParseDelta(rawJSON)
	if !ok {
		state.Drop("chunk has neither choices nor usage")
		return nil
	}
	if state.Terminated || state.AwaitingUsage {
		if delta.Usage == nil {
			return nil
		}
		state.RecordUsage(*delta.Usage)
		if state.Terminated {
			return nil
		}
		return finishMessage(state)
	}

	var events []translator.Event
	if !state.Started {
		if isUsageOnly(delta) {
			state.RecordUsage(*delta.Usage)
			return nil
		}
		if delta.Model != "" {
			state.Model = delta.Model
		}
		state.MessageID = delta.ID
		events = append(events, messageStart(state))
		if delta.Content == "" && delta.Reasoning == "" && len(delta.ToolCalls) == 0 {
			events = append(events, startTextBlock(state))
		}
	}

	if delta.Reasoning != "" {
		events = append(events, stopBlock(state, state.TextBlockIndex)...)
		if state.ThinkingBlockIndex == -1 {
			idx := state.OpenBlock(translator.BlockThinking)
			block := `{"type":"content_block_start","index":0,"content_block":{"type":"thinking","thinking":""}}`
			block, _ = sjson.Set(block, "index", idx)
			events = append(events, event("content_block_start", block))
		}
		out := `{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":""}}`
		out, _ = sjson.Set(out, "index", state.ThinkingBlockIndex)
		out, _ = sjson.Set(out, "delta.thinking", delta.Reasoning)
		events = append(events, event("content_block_delta", out))
	}

	if delta.Content != "" {
		events = append(events, stopBlock(state, state.ThinkingBlockIndex)...)
		events = append(events, stopToolBlocks(state)...)
		if state.TextBlockIndex == -1 {
			events = append(events, startTextBlock(state))
		}
		out := `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":""}}`
		out, _ = sjson.Set(out, "index", state.TextBlockIndex)
		out, _ = sjson.Set(out, "delta.text", delta.Content)
		events = append(events, event("content_block_delta", out))
		state.TextLength += utf8.RuneCountInString(delta.Content)
	}

	for _, tc := range delta.ToolCalls {
		call, _ := state.ToolCall(tc.Index)
		if tc.ID != "" {
			call.ID = tc.ID
		}
		if tc.Name != "" {
			call.Name = tc.Name
		}
		if call.BlockIndex == -1 {
			call.Arguments.WriteString(tc.Arguments)
			if call.Name == "" {
				// Arguments before the name are held until the block can be opened.
				continue
			}
			events = append(events, startToolBlock(state, call)...)
			continue
		}
		if _, open := state.OpenBlocks[call.BlockIndex]; open && tc.Arguments != "" {
			events = append(events, inputJSONDelta(call.BlockIndex, tc.Arguments))
		}
	}

	if delta.Usage != nil {
		state.RecordUsage(*delta.Usage)
	}

	if delta.FinishReason != "" {
		state.FinishReason = delta.FinishReason
		if state.Usage == nil {
			state.AwaitingUsage = true
			return append(events, closeBlocks(state)...)
		}
		events = append(events, terminate(state)...)
	}
	return events
}

func flushClaude(state *translator.State) []translator.Event {
	var events []translator.Event
	if !state.Started {
		events = append(events, messageStart(state))
	}
	return append(events, terminate(state)...)
}

// terminate closes every open block in index order, then emits message_delta and message_stop.
func terminate(state *translator.State) []translator.Event {
	return append(closeBlocks(state), finishMessage(state)...)
}

// closeBlocks opens blocks for tool calls still waiting on a name, then stops every open block.
func closeBlocks(state *translator.State) []translator.Event {
	var events []translator.Event
	for _, idx := range state.ToolIndexes() {
		call := state.ToolCalls[idx]
		if call.BlockIndex == -1 {
			events = append(events, startToolBlock(state, call)...)
		}
	}
	for _, idx := range state.OpenIndexes() {
		events = append(events, stopBlock(state, idx)...)
	}
	return events
}

func finishMessage(state *translator.State) []translator.Event {
	var events []translator.Event
	out := `{"type":"message_delta","delta":{"stop_reason":"","stop_sequence":null},"usage":{"input_tokens":0,"output_tokens":0}}`
	out, _ = sjson.Set(out, "delta.stop_reason", mapOpenAIFinishReasonToAnthropic(state.FinishOrDefault()))
	if state.Usage != nil {
		out, _ = sjson.Set(out, "usage.input_tokens", state.Usage.PromptTokens)
		out, _ = sjson.Set(out, "usage.output_tokens", state.Usage.CompletionTokens)
		if state.Usage.CachedTokens > 0 {
			out, _ = sjson.Set(out, "usage.cache_read_input_tokens", state.Usage.CachedTokens)
		}
	}
	events = append(events, event("message_delta", out))
	events = append(events, event("message_stop", `{"type":"message_stop"}`))
	state.AwaitingUsage = false
	state.Terminated = true
	return events
}

func messageStart(state *translator.State) translator.Event {
	if state.MessageID == "" {
		state.MessageID = "msg_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	state.Started = true
	out := `{"type":"message_start","message":{"id":"","type":"message","role":"assistant","model":"","content":[],"stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":0,"output_tokens":0}}}`
	out, _ = sjson.Set(out, "message.id", state.MessageID)
	out, _ = sjson.Set(out, "message.model", state.Model)
	return event("message_start", out)
}

func startTextBlock(state *translator.State) translator.Event {
	idx := state.OpenBlock(translator.BlockText)
	out := `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`
	out, _ = sjson.Set(out, "index", idx)
	return event("content_block_start", out)
}

// startToolBlock closes any open text or thinking block, opens a tool_use block for the
// call and replays the arguments buffered before the block existed.
func startToolBlock(state *translator.State, call *translator.ToolCallState) []translator.Event {
	var events []translator.Event
	events = append(events, stopBlock(state, state.ThinkingBlockIndex)...)
	events = append(events, stopBlock(state, state.TextBlockIndex)...)

	if call.ID == "" {
		call.ID = "toolu_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	call.BlockIndex = state.OpenBlock(translator.BlockToolUse)
	out := `{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"","name":"","input":{}}}`
	out, _ = sjson.Set(out, "index", call.BlockIndex)
	out, _ = sjson.Set(out, "content_block.id", call.ID)
	out, _ = sjson.Set(out, "content_block.name", call.Name)
	events = append(events, event("content_block_start", out))

	if pending := call.Arguments.String(); pending != "" {
		events = append(events, inputJSONDelta(call.BlockIndex, pending))
		call.Arguments.Reset()
	}
	return events
}

// stopToolBlocks stops every open tool_use block.
func stopToolBlocks(state *translator.State) []translator.Event {
	var events []translator.Event
	for _, idx := range state.OpenIndexes() {
		if state.OpenBlocks[idx] == translator.BlockToolUse {
			events = append(events, stopBlock(state, idx)...)
		}
	}
	return events
}

func inputJSONDelta(index int, partial string) translator.Event {
	out := `{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":""}}`
	out, _ = sjson.Set(out, "index", index)
	out, _ = sjson.Set(out, "delta.partial_json", partial)
	return event("content_block_delta", out)
}

// stopBlock emits content_block_stop for idx when that block is open.
func stopBlock(state *translator.State, idx int) []translator.Event {
	if idx < 0 || !state.CloseBlock(idx) {
		return nil
	}
	out := `{"type":"content_block_stop","index":0}`
	out, _ = sjson.Set(out, "index", idx)
	return []translator.Event{event("content_block_stop", out)}
}

func isUsageOnly(delta translator.Delta) bool {
	return delta.Usage != nil && !delta.HasChoice
}

func event(name, payload string) translator.Event {
	return translator.Event{Type: name, Data: []byte(payload)}
}

// mapOpenAIFinishReasonToAnthropic maps OpenAI finish reasons to Anthropic equivalents.
func mapOpenAIFinishReasonToAnthropic(openAIReason string) string {
	switch openAIReason {
	case "stop":
		return "end_turn"
	case "length":
		return "max_tokens"
	case "tool_calls", "function_call":
		return "tool_use"
	case "content_filter":
		return "end_turn"
	default:
		return "end_turn"
	}
}
