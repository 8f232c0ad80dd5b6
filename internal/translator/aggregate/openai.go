// Package aggregate collapses translated event streams into the complete response objects
// non-streaming clients expect.
package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

func init() {
	translator.RegisterAggregator(translator.FormatOpenAI, OpenAI)
	translator.RegisterAggregator(translator.FormatClaude, Claude)
	translator.RegisterAggregator(translator.FormatGemini, Gemini)
	translator.RegisterAggregator(translator.FormatGeminiCLI, Envelope)
	translator.RegisterAggregator(translator.FormatAntigravity, Envelope)
}

type toolCall struct {
	id   string
	name string
	args strings.Builder
}

// OpenAI merges chat.completion.chunk events into a chat.completion object.
func OpenAI(events []translator.Event, state *translator.State) []byte {
	var (
		id, model, finish string
		created           int64
		content, thinking strings.Builder
		usage             *translator.Usage
	)
	calls := map[int]*toolCall{}
	for _, ev := range events {
		d, ok := translator.ParseDelta(ev.Data)
		if !ok {
			continue
		}
		if id == "" {
			id = d.ID
		}
		if model == "" {
			model = d.Model
		}
		if created == 0 {
			created = d.CreatedAt
		}
		content.WriteString(d.Content)
		thinking.WriteString(d.Reasoning)
		for _, tc := range d.ToolCalls {
			call, exists := calls[tc.Index]
			if !exists {
				call = &toolCall{}
				calls[tc.Index] = call
			}
			if tc.ID != "" {
				call.id = tc.ID
			}
			if tc.Name != "" {
				call.name = tc.Name
			}
			call.args.WriteString(tc.Arguments)
		}
		if d.FinishReason != "" {
			finish = d.FinishReason
		}
		if d.Usage != nil {
			usage = d.Usage
		}
	}
	if state != nil {
		if model == "" {
			model = state.Model
		}
		if state.Usage != nil {
			usage = state.Usage
		}
	}
	if created == 0 {
		created = time.Now().Unix()
	}
	if finish == "" {
		finish = "stop"
	}

	out := `{"id":"","object":"chat.completion","created":0,"model":"","choices":[{"index":0,"message":{"role":"assistant","content":null},"finish_reason":""}]}`
	out, _ = sjson.Set(out, "id", id)
	out, _ = sjson.Set(out, "created", created)
	out, _ = sjson.Set(out, "model", model)
	if content.Len() > 0 || len(calls) == 0 {
		out, _ = sjson.Set(out, "choices.0.message.content", content.String())
	}
	if thinking.Len() > 0 {
		out, _ = sjson.Set(out, "choices.0.message.reasoning_content", thinking.String())
	}
	indexes := make([]int, 0, len(calls))
	for idx := range calls {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	for _, idx := range indexes {
		call := calls[idx]
		item := `{"id":"","type":"function","function":{"name":"","arguments":""}}`
		item, _ = sjson.Set(item, "id", call.id)
		item, _ = sjson.Set(item, "function.name", call.name)
		item, _ = sjson.Set(item, "function.arguments", call.args.String())
		out, _ = sjson.SetRaw(out, "choices.0.message.tool_calls.-1", item)
	}
	out, _ = sjson.Set(out, "choices.0.finish_reason", finish)
	if usage != nil {
		out, _ = sjson.SetRaw(out, "usage", usage.OpenAIJSON())
	}
	return []byte(out)
}

func gjsonOf(ev translator.Event) gjson.Result {
	return gjson.ParseBytes(ev.Data)
}
