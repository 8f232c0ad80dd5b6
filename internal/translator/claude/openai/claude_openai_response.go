// Package openai translates Anthropic Messages responses into canonical OpenAI chunks and
// OpenAI Chat Completions requests into Anthropic Messages requests.
package openai

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/gjson"
)

// ConvertClaudeResponseToOpenAI converts one Anthropic SSE event payload into canonical
// chunks. A complete Anthropic message object (type "message") is accepted as well and is
// turned into a single chunk. A nil rawJSON flushes the stream with a finish chunk when the
// upstream never sent message_delta.
func ConvertClaudeResponseToOpenAI(_ context.Context, rawJSON []byte, state *translator.State) []translator.Event {
	if rawJSON == nil {
		if state.FinishReason != "" {
			return nil
		}
		d := baseDelta(state)
		d.FinishReason = "stop"
		d.Usage = state.Usage
		state.FinishReason = d.FinishReason
		return chunk(d)
	}

	if !gjson.ValidBytes(rawJSON) {
		state.Drop("invalid JSON")
		return nil
	}
	root := gjson.ParseBytes(rawJSON)
	eventType := root.Get("type").String()

	switch eventType {
	case "message_start":
		message := root.Get("message")
		state.MessageID = message.Get("id").String()
		if model := message.Get("model").String(); model != "" {
			state.Model = model
		}
		state.CreatedAt = time.Now().Unix()
		state.Started = true
		if usage := message.Get("usage"); usage.Exists() {
			state.RecordUsage(parseClaudeUsage(usage))
		}
		d := baseDelta(state)
		d.Role = "assistant"
		return chunk(d)

	case "content_block_start":
		index := int(root.Get("index").Int())
		block := root.Get("content_block")
		switch block.Get("type").String() {
		case "tool_use":
			call, _ := state.ToolCall(index)
			call.Position = state.ToolCallCount
			state.ToolCallCount++
			call.ID = block.Get("id").String()
			call.Name = block.Get("name").String()
			d := baseDelta(state)
			d.ToolCalls = []translator.ToolCallDelta{{Index: call.Position, ID: call.ID, Name: call.Name}}
			return chunk(d)
		case "text":
			if text := block.Get("text").String(); text != "" {
				d := baseDelta(state)
				d.Content = text
				return chunk(d)
			}
		}
		return nil

	case "content_block_delta":
		index := int(root.Get("index").Int())
		delta := root.Get("delta")
		d := baseDelta(state)
		switch delta.Get("type").String() {
		case "text_delta":
			d.Content = delta.Get("text").String()
		case "thinking_delta":
			d.Reasoning = delta.Get("thinking").String()
		case "input_json_delta":
			call, ok := state.ToolCalls[index]
			if !ok {
				state.Drop("input_json_delta for unknown block")
				return nil
			}
			call.Arguments.WriteString(delta.Get("partial_json").String())
			d.ToolCalls = []translator.ToolCallDelta{{Index: call.Position, Arguments: delta.Get("partial_json").String()}}
		default:
			return nil
		}
		if d.Content == "" && d.Reasoning == "" && len(d.ToolCalls) == 0 {
			return nil
		}
		return chunk(d)

	case "message_delta":
		if usage := root.Get("usage"); usage.Exists() {
			state.RecordUsage(parseClaudeUsage(usage))
		}
		stop := root.Get("delta.stop_reason").String()
		if stop == "" {
			return nil
		}
		state.FinishReason = mapAnthropicStopReasonToOpenAI(stop)
		d := baseDelta(state)
		d.FinishReason = state.FinishReason
		d.Usage = state.Usage
		return chunk(d)

	case "message":
		return convertClaudeMessage(root, state)

	case "content_block_stop", "message_stop", "ping":
		return nil

	case "error":
		log.Warnf("claude stream error event: %s", root.Get("error.message").String())
		return nil

	default:
		state.Drop("unknown event type " + eventType)
		return nil
	}
}

// convertClaudeMessage turns a complete Anthropic message into one canonical chunk.
func convertClaudeMessage(root gjson.Result, state *translator.State) []translator.Event {
	state.MessageID = root.Get("id").String()
	if model := root.Get("model").String(); model != "" {
		state.Model = model
	}
	state.CreatedAt = time.Now().Unix()
	state.Started = true

	d := baseDelta(state)
	d.Role = "assistant"
	var text, reasoning strings.Builder
	root.Get("content").ForEach(func(_, block gjson.Result) bool {
		switch block.Get("type").String() {
		case "text":
			text.WriteString(block.Get("text").String())
		case "thinking":
			reasoning.WriteString(block.Get("thinking").String())
		case "tool_use":
			args := block.Get("input").Raw
			if args == "" {
				args = "{}"
			}
			d.ToolCalls = append(d.ToolCalls, translator.ToolCallDelta{
				Index:     state.ToolCallCount,
				ID:        block.Get("id").String(),
				Name:      block.Get("name").String(),
				Arguments: args,
			})
			state.ToolCallCount++
		}
		return true
	})
	d.Content = text.String()
	d.Reasoning = reasoning.String()

	if usage := root.Get("usage"); usage.Exists() {
		state.RecordUsage(parseClaudeUsage(usage))
	}
	stop := root.Get("stop_reason").String()
	if stop == "" {
		stop = "end_turn"
	}
	state.FinishReason = mapAnthropicStopReasonToOpenAI(stop)
	d.FinishReason = state.FinishReason
	d.Usage = state.Usage
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

func parseClaudeUsage(usage gjson.Result) translator.Usage {
	cached := usage.Get("cache_read_input_tokens").Int()
	u := translator.Usage{
		PromptTokens:     usage.Get("input_tokens").Int() + cached + usage.Get("cache_creation_input_tokens").Int(),
		CompletionTokens: usage.Get("output_tokens").Int(),
		CachedTokens:     cached,
	}
	return u
}

func mapAnthropicStopReasonToOpenAI(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence", "pause_turn":
		return "stop"
	case "max_tokens":
		return "length"
	case "tool_use":
		return "tool_calls"
	case "refusal":
		return "content_filter"
	default:
		return "stop"
	}
}
