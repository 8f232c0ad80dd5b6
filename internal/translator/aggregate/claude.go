package aggregate

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

type claudeBlock struct {
	raw     string
	text    strings.Builder
	partial strings.Builder
}

// Claude rebuilds an Anthropic message object from message_start, the content block events
// and message_delta. Without a message_start event a minimal message is produced.
func Claude(events []translator.Event, state *translator.State) []byte {
	var message string
	blocks := map[int]*claudeBlock{}
	stopReason := ""
	var outputTokens, inputTokens int64

	for _, ev := range events {
		root := gjsonOf(ev)
		switch root.Get("type").String() {
		case "message_start":
			message = root.Get("message").Raw
			inputTokens = root.Get("message.usage.input_tokens").Int()
		case "content_block_start":
			blocks[int(root.Get("index").Int())] = &claudeBlock{raw: root.Get("content_block").Raw}
		case "content_block_delta":
			block, ok := blocks[int(root.Get("index").Int())]
			if !ok {
				continue
			}
			delta := root.Get("delta")
			switch delta.Get("type").String() {
			case "text_delta":
				block.text.WriteString(delta.Get("text").String())
			case "thinking_delta":
				block.text.WriteString(delta.Get("thinking").String())
			case "input_json_delta":
				block.partial.WriteString(delta.Get("partial_json").String())
			case "signature_delta":
				block.raw, _ = sjson.Set(block.raw, "signature", delta.Get("signature").String())
			}
		case "message_delta":
			if reason := root.Get("delta.stop_reason").String(); reason != "" {
				stopReason = reason
			}
			if v := root.Get("usage.output_tokens"); v.Exists() {
				outputTokens = v.Int()
			}
			if v := root.Get("usage.input_tokens").Int(); v > 0 {
				inputTokens = v
			}
		case "message":
			return ev.Data
		}
	}

	if message == "" {
		model := ""
		if state != nil {
			model = state.Model
		}
		message = `{"id":"","type":"message","role":"assistant","model":"","content":[],"stop_reason":"end_turn","stop_sequence":null,"usage":{"input_tokens":0,"output_tokens":0}}`
		message, _ = sjson.Set(message, "id", "msg_"+strings.ReplaceAll(uuid.NewString(), "-", ""))
		message, _ = sjson.Set(message, "model", model)
	}

	indexes := make([]int, 0, len(blocks))
	for idx := range blocks {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	message, _ = sjson.SetRaw(message, "content", "[]")
	for _, idx := range indexes {
		block := blocks[idx]
		raw := block.raw
		switch gjson.Get(raw, "type").String() {
		case "text":
			raw, _ = sjson.Set(raw, "text", gjson.Get(raw, "text").String()+block.text.String())
		case "thinking":
			raw, _ = sjson.Set(raw, "thinking", gjson.Get(raw, "thinking").String()+block.text.String())
		case "tool_use":
			if input := block.partial.String(); input != "" && gjson.Valid(input) {
				raw, _ = sjson.SetRaw(raw, "input", input)
			}
		}
		message, _ = sjson.SetRaw(message, "content.-1", raw)
	}

	if stopReason != "" {
		message, _ = sjson.Set(message, "stop_reason", stopReason)
	} else if gjson.Get(message, "stop_reason").Type == gjson.Null {
		message, _ = sjson.Set(message, "stop_reason", "end_turn")
	}
	if state != nil && state.Usage != nil {
		if state.Usage.PromptTokens > inputTokens {
			inputTokens = state.Usage.PromptTokens
		}
		if state.Usage.CompletionTokens > outputTokens {
			outputTokens = state.Usage.CompletionTokens
		}
	}
	message, _ = sjson.Set(message, "usage.input_tokens", inputTokens)
	message, _ = sjson.Set(message, "usage.output_tokens", outputTokens)
	return []byte(message)
}
