package translator

import (
	"context"
	"testing"

	sdktranslator "github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/gjson"
)

func eventTypes(events []sdktranslator.Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}

func translateAll(t *testing.T, from, to sdktranslator.Format, chunks ...string) ([]sdktranslator.Event, *sdktranslator.State) {
	t.Helper()
	state, err := sdktranslator.InitState(from, to, "test-model")
	if err != nil {
		t.Fatalf("InitState(%s, %s) error = %v", from, to, err)
	}
	var events []sdktranslator.Event
	for _, chunk := range chunks {
		out, errTranslate := sdktranslator.Translate(context.Background(), from, to, []byte(chunk), state)
		if errTranslate != nil {
			t.Fatalf("Translate() error = %v", errTranslate)
		}
		events = append(events, out...)
	}
	tail, err := sdktranslator.Translate(context.Background(), from, to, nil, state)
	if err != nil {
		t.Fatalf("flush error = %v", err)
	}
	return append(events, tail...), state
}

func TestOpenAIToClaude_SingleFinishingDelta(t *testing.T) {
	state, err := sdktranslator.InitState(sdktranslator.FormatOpenAI, sdktranslator.FormatClaude, "test-model")
	if err != nil {
		t.Fatalf("InitState() error = %v", err)
	}
	chunk := `{"id":"chatcmpl-1","model":"gpt-x","choices":[{"index":0,"delta":{"role":"assistant","content":"Hi"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`
	events, err := sdktranslator.Translate(context.Background(), sdktranslator.FormatOpenAI, sdktranslator.FormatClaude, []byte(chunk), state)
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}

	want := []string{"message_start", "content_block_start", "content_block_delta", "content_block_stop", "message_delta", "message_stop"}
	got := eventTypes(events)
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if text := gjson.GetBytes(events[2].Data, "delta.text").String(); text != "Hi" {
		t.Fatalf("text delta = %q, want Hi", text)
	}
	if reason := gjson.GetBytes(events[4].Data, "delta.stop_reason").String(); reason != "end_turn" {
		t.Fatalf("stop_reason = %q, want end_turn", reason)
	}
	if tokens := gjson.GetBytes(events[4].Data, "usage.output_tokens").Int(); tokens != 1 {
		t.Fatalf("output_tokens = %d, want 1", tokens)
	}
	if model := gjson.GetBytes(events[0].Data, "message.model").String(); model != "gpt-x" {
		t.Fatalf("message model = %q", model)
	}

	tail, err := sdktranslator.Translate(context.Background(), sdktranslator.FormatOpenAI, sdktranslator.FormatClaude, nil, state)
	if err != nil || len(tail) != 0 {
		t.Fatalf("flush after finish = %v, %v; want no events", eventTypes(tail), err)
	}
}

func TestOpenAIToClaude_BlocksBalanced(t *testing.T) {
	events, _ := translateAll(t, sdktranslator.FormatOpenAI, sdktranslator.FormatClaude,
		`{"id":"c","choices":[{"index":0,"delta":{"role":"assistant","reasoning_content":"think"}}]}`,
		`{"id":"c","choices":[{"index":0,"delta":{"content":"answer"}}]}`,
		`{"id":"c","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"lookup","arguments":""}}]}}]}`,
		`{"id":"c","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"q\":"}}]}}]}`,
		`{"id":"c","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"1}"}}]}}]}`,
		`{"id":"c","choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
	)

	open := map[int64]bool{}
	started := map[int64]bool{}
	for _, ev := range events {
		idx := gjson.GetBytes(ev.Data, "index").Int()
		switch ev.Type {
		case "content_block_start":
			if started[idx] {
				t.Fatalf("block %d started twice", idx)
			}
			started[idx] = true
			open[idx] = true
		case "content_block_delta":
			if !open[idx] {
				t.Fatalf("delta for block %d outside start/stop", idx)
			}
		case "content_block_stop":
			if !open[idx] {
				t.Fatalf("stop for block %d that is not open", idx)
			}
			delete(open, idx)
		}
	}
	if len(open) != 0 {
		t.Fatalf("blocks left open: %v", open)
	}
	if len(started) != 3 {
		t.Fatalf("started %d blocks, want text, thinking and tool_use", len(started))
	}
	last := events[len(events)-1]
	if last.Type != "message_stop" {
		t.Fatalf("last event = %s, want message_stop", last.Type)
	}
	delta := events[len(events)-2]
	if reason := gjson.GetBytes(delta.Data, "delta.stop_reason").String(); reason != "tool_use" {
		t.Fatalf("stop_reason = %q, want tool_use", reason)
	}
}

func TestOpenAIToClaude_EmptyStreamFlush(t *testing.T) {
	events, _ := translateAll(t, sdktranslator.FormatOpenAI, sdktranslator.FormatClaude)
	got := eventTypes(events)
	want := []string{"message_start", "message_delta", "message_stop"}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestOpenAIToClaude_UsageAfterFinishReachesMessageDelta(t *testing.T) {
	state, err := sdktranslator.InitState(sdktranslator.FormatOpenAI, sdktranslator.FormatClaude, "m")
	if err != nil {
		t.Fatalf("InitState() error = %v", err)
	}
	ctx := context.Background()
	push := func(chunk string) []sdktranslator.Event {
		t.Helper()
		events, errTranslate := sdktranslator.Translate(ctx, sdktranslator.FormatOpenAI, sdktranslator.FormatClaude, []byte(chunk), state)
		if errTranslate != nil {
			t.Fatalf("Translate() error = %v", errTranslate)
		}
		return events
	}

	push(`{"id":"c","choices":[{"index":0,"delta":{"role":"assistant","content":"x"}}]}`)
	atFinish := eventTypes(push(`{"id":"c","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`))
	if len(atFinish) != 1 || atFinish[0] != "content_block_stop" {
		t.Fatalf("events at finish = %v, want only content_block_stop", atFinish)
	}

	tail := push(`{"id":"c","choices":[],"usage":{"prompt_tokens":7,"completion_tokens":2,"total_tokens":9}}`)
	if got := eventTypes(tail); len(got) != 2 || got[0] != "message_delta" || got[1] != "message_stop" {
		t.Fatalf("events after usage = %v", got)
	}
	if in := gjson.GetBytes(tail[0].Data, "usage.input_tokens").Int(); in != 7 {
		t.Fatalf("streamed input_tokens = %d, want 7", in)
	}
	if out := gjson.GetBytes(tail[0].Data, "usage.output_tokens").Int(); out != 2 {
		t.Fatalf("streamed output_tokens = %d, want 2", out)
	}
	if reason := gjson.GetBytes(tail[0].Data, "delta.stop_reason").String(); reason != "end_turn" {
		t.Fatalf("stop_reason = %q", reason)
	}

	flushed, err := sdktranslator.Translate(ctx, sdktranslator.FormatOpenAI, sdktranslator.FormatClaude, nil, state)
	if err != nil || len(flushed) != 0 {
		t.Fatalf("flush = %v, %v; want no events", eventTypes(flushed), err)
	}
}

func TestOpenAIToClaude_FinishWithoutUsageCompletesOnFlush(t *testing.T) {
	events, _ := translateAll(t, sdktranslator.FormatOpenAI, sdktranslator.FormatClaude,
		`{"id":"c","choices":[{"index":0,"delta":{"role":"assistant","content":"x"},"finish_reason":"length"}]}`,
	)
	got := eventTypes(events)
	want := []string{"message_start", "content_block_start", "content_block_delta", "content_block_stop", "message_delta", "message_stop"}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
	if reason := gjson.GetBytes(events[4].Data, "delta.stop_reason").String(); reason != "max_tokens" {
		t.Fatalf("stop_reason = %q, want max_tokens", reason)
	}
}

func TestOpenAIToClaude_TextAfterToolClosesToolBlock(t *testing.T) {
	events, _ := translateAll(t, sdktranslator.FormatOpenAI, sdktranslator.FormatClaude,
		`{"id":"c","choices":[{"index":0,"delta":{"role":"assistant","tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"f","arguments":"{}"}}]}}]}`,
		`{"id":"c","choices":[{"index":0,"delta":{"content":"done"}}]}`,
		`{"id":"c","choices":[{"index":0,"delta":{},"finish_reason":"stop"}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`,
	)
	assertBlocksBalanced(t, events)

	var sawToolStop bool
	for _, ev := range events {
		if ev.Type == "content_block_stop" && gjson.GetBytes(ev.Data, "index").Int() == 0 {
			sawToolStop = true
		}
		if ev.Type == "content_block_start" && gjson.GetBytes(ev.Data, "content_block.type").String() == "text" && !sawToolStop {
			t.Fatal("text block opened before the tool_use block was stopped")
		}
	}
}

func TestOpenAIToGemini_UsageAfterFinish(t *testing.T) {
	p, err := sdktranslator.NewPipeline(sdktranslator.FormatOpenAI, sdktranslator.FormatGemini, "m", true)
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	ctx := context.Background()
	var streamed []sdktranslator.Event
	for _, chunk := range []string{
		`{"id":"c","choices":[{"index":0,"delta":{"role":"assistant","content":"x"}}]}`,
		`{"id":"c","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
		`{"id":"c","choices":[],"usage":{"prompt_tokens":7,"completion_tokens":2,"total_tokens":9}}`,
	} {
		out, errPush := p.Push(ctx, []byte(chunk))
		if errPush != nil {
			t.Fatalf("Push() error = %v", errPush)
		}
		streamed = append(streamed, out...)
	}
	flushed, err := p.Push(ctx, nil)
	if err != nil {
		t.Fatalf("flush error = %v", err)
	}
	if len(flushed) != 0 {
		t.Fatalf("flush emitted %d chunks after the terminal chunk", len(flushed))
	}
	if len(streamed) != 2 {
		t.Fatalf("streamed %d chunks, want text and terminal", len(streamed))
	}
	terminal := streamed[1].Data
	if total := gjson.GetBytes(terminal, "usageMetadata.totalTokenCount").Int(); total != 9 {
		t.Fatalf("streamed totalTokenCount = %d, want 9; chunk %s", total, terminal)
	}
	if reason := gjson.GetBytes(terminal, "candidates.0.finishReason").String(); reason != "STOP" {
		t.Fatalf("finishReason = %q", reason)
	}

	out, err := p.Aggregate()
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if prompt := gjson.GetBytes(out, "usageMetadata.promptTokenCount").Int(); prompt != 7 {
		t.Fatalf("aggregated promptTokenCount = %d, want 7; body %s", prompt, out)
	}
}

func TestAggregateGemini_UsageFromState(t *testing.T) {
	state, err := sdktranslator.InitState(sdktranslator.FormatOpenAI, sdktranslator.FormatGemini, "m")
	if err != nil {
		t.Fatalf("InitState() error = %v", err)
	}
	state.RecordUsage(sdktranslator.Usage{PromptTokens: 5, CompletionTokens: 4, TotalTokens: 9})
	events := []sdktranslator.Event{{Data: []byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"a"}]},"finishReason":"STOP","index":0}]}`)}}

	out, err := sdktranslator.Aggregate(sdktranslator.FormatGemini, events, state)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if got := gjson.GetBytes(out, "usageMetadata.candidatesTokenCount").Int(); got != 4 {
		t.Fatalf("candidatesTokenCount = %d, want 4; body %s", got, out)
	}
}

func TestOpenAIToClaude_MalformedDeltaSkipped(t *testing.T) {
	events, state := translateAll(t, sdktranslator.FormatOpenAI, sdktranslator.FormatClaude,
		`{"id":"c","choices":[{"index":0,"delta":{"content":"a"}}]}`,
		`{"unexpected":true}`,
		`{"id":"c","choices":[{"index":0,"delta":{"content":"b"}}]}`,
	)
	if state.Dropped != 1 {
		t.Fatalf("Dropped = %d, want 1", state.Dropped)
	}
	var text string
	for _, ev := range events {
		text += gjson.GetBytes(ev.Data, "delta.text").String()
	}
	if text != "ab" {
		t.Fatalf("text = %q, want ab", text)
	}
}

func TestIdentityOpenAI_OneEventPerChunk(t *testing.T) {
	chunks := []string{
		`{"id":"c","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"role":"assistant"}}]}`,
		`{"id":"c","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"a"}}]}`,
		`{"id":"c","object":"chat.completion.chunk","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
		`{"id":"c","object":"chat.completion.chunk","choices":[],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`,
	}
	events, _ := translateAll(t, sdktranslator.FormatOpenAI, sdktranslator.FormatOpenAI, chunks...)
	if len(events) != len(chunks) {
		t.Fatalf("got %d events, want %d", len(events), len(chunks))
	}
	for i := range chunks {
		if string(events[i].Data) != chunks[i] {
			t.Fatalf("event %d = %s, want %s", i, events[i].Data, chunks[i])
		}
	}
}

func TestIdentityOpenAI_FlushWithoutFinish(t *testing.T) {
	events, _ := translateAll(t, sdktranslator.FormatOpenAI, sdktranslator.FormatOpenAI,
		`{"id":"c","choices":[{"index":0,"delta":{"content":"a"}}]}`,
	)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if reason := gjson.GetBytes(events[1].Data, "choices.0.finish_reason").String(); reason != "stop" {
		t.Fatalf("finish_reason = %q, want stop", reason)
	}
}

func TestOpenAIToGemini_ToolCallsOnTerminalChunk(t *testing.T) {
	events, _ := translateAll(t, sdktranslator.FormatOpenAI, sdktranslator.FormatGemini,
		`{"id":"c","choices":[{"index":0,"delta":{"role":"assistant"}}]}`,
		`{"id":"c","choices":[{"index":0,"delta":{"content":"hi"}}]}`,
		`{"id":"c","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"x","function":{"name":"f","arguments":"{\"a\":"}}]}}]}`,
		`{"id":"c","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"2}"}}]}}]}`,
		`{"id":"c","choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}],"usage":{"prompt_tokens":4,"completion_tokens":5,"total_tokens":9}}`,
	)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if text := gjson.GetBytes(events[0].Data, "candidates.0.content.parts.0.text").String(); text != "hi" {
		t.Fatalf("text = %q", text)
	}
	if gjson.GetBytes(events[0].Data, "usageMetadata").Exists() {
		t.Fatal("usage must only appear on the terminal chunk")
	}
	terminal := events[1].Data
	if name := gjson.GetBytes(terminal, "candidates.0.content.parts.0.functionCall.name").String(); name != "f" {
		t.Fatalf("functionCall name = %q", name)
	}
	if a := gjson.GetBytes(terminal, "candidates.0.content.parts.0.functionCall.args.a").Int(); a != 2 {
		t.Fatalf("functionCall args.a = %d", a)
	}
	if reason := gjson.GetBytes(terminal, "candidates.0.finishReason").String(); reason != "STOP" {
		t.Fatalf("finishReason = %q", reason)
	}
	if total := gjson.GetBytes(terminal, "usageMetadata.totalTokenCount").Int(); total != 9 {
		t.Fatalf("totalTokenCount = %d", total)
	}
}

func TestClaudeToOpenAI_Ingest(t *testing.T) {
	events, state := translateAll(t, sdktranslator.FormatClaude, sdktranslator.FormatOpenAI,
		`{"type":"message_start","message":{"id":"msg_1","model":"claude-x","usage":{"input_tokens":10,"output_tokens":0}}}`,
		`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"lo"}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"toolu_1","name":"f","input":{}}}`,
		`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{}"}}`,
		`{"type":"content_block_stop","index":1}`,
		`{"type":"message_delta","delta":{"stop_reason":"tool_use"},"usage":{"output_tokens":6}}`,
		`{"type":"message_stop"}`,
	)
	out, err := sdktranslator.Aggregate(sdktranslator.FormatOpenAI, events, state)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if content := gjson.GetBytes(out, "choices.0.message.content").String(); content != "Hello" {
		t.Fatalf("content = %q, want Hello", content)
	}
	if id := gjson.GetBytes(out, "choices.0.message.tool_calls.0.id").String(); id != "toolu_1" {
		t.Fatalf("tool call id = %q", id)
	}
	if reason := gjson.GetBytes(out, "choices.0.finish_reason").String(); reason != "tool_calls" {
		t.Fatalf("finish_reason = %q", reason)
	}
	if prompt := gjson.GetBytes(out, "usage.prompt_tokens").Int(); prompt != 10 {
		t.Fatalf("prompt_tokens = %d", prompt)
	}
	if completion := gjson.GetBytes(out, "usage.completion_tokens").Int(); completion != 6 {
		t.Fatalf("completion_tokens = %d", completion)
	}
}

func TestPipeline_GeminiToClaudeAggregate(t *testing.T) {
	p, err := sdktranslator.NewPipeline(sdktranslator.FormatGemini, sdktranslator.FormatClaude, "gemini-x", true)
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	ctx := context.Background()
	for _, chunk := range []string{
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"Hel"}]},"index":0}],"modelVersion":"gemini-x"}`,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"lo"}]},"finishReason":"STOP","index":0}],"usageMetadata":{"promptTokenCount":2,"candidatesTokenCount":3,"totalTokenCount":5}}`,
	} {
		if _, err = p.Push(ctx, []byte(chunk)); err != nil {
			t.Fatalf("Push() error = %v", err)
		}
	}
	if _, err = p.Push(ctx, nil); err != nil {
		t.Fatalf("flush error = %v", err)
	}
	if p.ClientFormat() != sdktranslator.FormatClaude {
		t.Fatalf("ClientFormat() = %s", p.ClientFormat())
	}

	out, err := p.Aggregate()
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if text := gjson.GetBytes(out, "content.0.text").String(); text != "Hello" {
		t.Fatalf("content text = %q, want Hello; body %s", text, out)
	}
	if reason := gjson.GetBytes(out, "stop_reason").String(); reason != "end_turn" {
		t.Fatalf("stop_reason = %q", reason)
	}
	if tokens := gjson.GetBytes(out, "usage.output_tokens").Int(); tokens != 3 {
		t.Fatalf("output_tokens = %d", tokens)
	}
}

func TestAggregateClaude_WithoutMessageStart(t *testing.T) {
	out, err := sdktranslator.Aggregate(sdktranslator.FormatClaude, nil, nil)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if typ := gjson.GetBytes(out, "type").String(); typ != "message" {
		t.Fatalf("type = %q", typ)
	}
	if reason := gjson.GetBytes(out, "stop_reason").String(); reason != "end_turn" {
		t.Fatalf("stop_reason = %q", reason)
	}
	if !gjson.GetBytes(out, "content").IsArray() {
		t.Fatalf("content missing: %s", out)
	}
}

func TestGeminiCLIEnvelopeIngest(t *testing.T) {
	events, _ := translateAll(t, sdktranslator.FormatGeminiCLI, sdktranslator.FormatOpenAI,
		`{"response":{"candidates":[{"content":{"role":"model","parts":[{"text":"ok"}]},"finishReason":"MAX_TOKENS","index":0}]}}`,
	)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if content := gjson.GetBytes(events[0].Data, "choices.0.delta.content").String(); content != "ok" {
		t.Fatalf("content = %q", content)
	}
	if reason := gjson.GetBytes(events[0].Data, "choices.0.finish_reason").String(); reason != "length" {
		t.Fatalf("finish_reason = %q", reason)
	}
}

func TestTranslateRequest_OpenAIToClaude(t *testing.T) {
	body := `{"model":"gpt","max_tokens":50,"stop":"END","messages":[
		{"role":"system","content":"be brief"},
		{"role":"user","content":"weather?"},
		{"role":"assistant","content":null,"tool_calls":[{"id":"call_1","type":"function","function":{"name":"get_weather","arguments":"{\"city\":\"Paris\"}"}}]},
		{"role":"tool","tool_call_id":"call_1","content":"sunny"}],
		"tools":[{"type":"function","function":{"name":"get_weather","description":"w","parameters":{"type":"object","properties":{"city":{"type":"string"}}}}}]}`

	out := gjson.ParseBytes(sdktranslator.TranslateRequest(sdktranslator.FormatOpenAI, sdktranslator.FormatClaude, "claude-x", []byte(body), true))

	checks := map[string]string{
		"model":                                     "claude-x",
		"max_tokens":                                "50",
		"stop_sequences.0":                          "END",
		"system.0.text":                             "be brief",
		"messages.0.role":                           "user",
		"messages.0.content.0.text":                 "weather?",
		"messages.1.content.0.type":                 "tool_use",
		"messages.1.content.0.id":                   "call_1",
		"messages.1.content.0.input.city":           "Paris",
		"messages.2.content.0.type":                 "tool_result",
		"messages.2.content.0.tool_use_id":          "call_1",
		"messages.2.content.0.content":              "sunny",
		"tools.0.name":                              "get_weather",
		"tools.0.input_schema.properties.city.type": "string",
		"stream": "true",
	}
	for path, want := range checks {
		if got := out.Get(path).String(); got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
}

func TestTranslateRequest_ClaudeToOpenAI(t *testing.T) {
	body := `{"model":"c","max_tokens":10,"system":"be brief","messages":[
		{"role":"user","content":"hi"},
		{"role":"assistant","content":[{"type":"text","text":"ok"},{"type":"tool_use","id":"tu_1","name":"lookup","input":{"q":"x"}}]},
		{"role":"user","content":[{"type":"tool_result","tool_use_id":"tu_1","content":"found"}]}]}`

	out := gjson.ParseBytes(sdktranslator.TranslateRequest(sdktranslator.FormatClaude, sdktranslator.FormatOpenAI, "gpt-x", []byte(body), true))

	if got := out.Get("messages.#").Int(); got != 4 {
		t.Fatalf("messages = %d, want 4: %s", got, out.Raw)
	}
	checks := map[string]string{
		"model":                                 "gpt-x",
		"max_tokens":                            "10",
		"stream_options.include_usage":          "true",
		"messages.0.role":                       "system",
		"messages.0.content.0.text":             "be brief",
		"messages.1.content":                    "hi",
		"messages.2.role":                       "assistant",
		"messages.2.content.0.text":             "ok",
		"messages.2.tool_calls.0.id":            "tu_1",
		"messages.2.tool_calls.0.function.name": "lookup",
		"messages.3.role":                       "tool",
		"messages.3.tool_call_id":               "tu_1",
		"messages.3.content":                    "found",
	}
	for path, want := range checks {
		if got := out.Get(path).String(); got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
	if args := out.Get("messages.2.tool_calls.0.function.arguments").String(); gjson.Get(args, "q").String() != "x" {
		t.Errorf("tool arguments = %q", args)
	}
}

func TestTranslateRequest_GeminiRoundTrip(t *testing.T) {
	openai := `{"model":"g","max_tokens":64,"messages":[{"role":"system","content":"sys"},{"role":"user","content":"hello"}]}`
	gem := gjson.ParseBytes(sdktranslator.TranslateRequest(sdktranslator.FormatOpenAI, sdktranslator.FormatGemini, "gemini-x", []byte(openai), false))
	if got := gem.Get("systemInstruction.parts.0.text").String(); got != "sys" {
		t.Fatalf("systemInstruction = %q: %s", got, gem.Raw)
	}
	if got := gem.Get("generationConfig.maxOutputTokens").Int(); got != 64 {
		t.Fatalf("maxOutputTokens = %d", got)
	}
	if got := gem.Get("contents.0.role").String(); got != "user" {
		t.Fatalf("contents.0.role = %q", got)
	}

	back := gjson.ParseBytes(sdktranslator.TranslateRequest(sdktranslator.FormatGemini, sdktranslator.FormatOpenAI, "gpt-x", []byte(`{"systemInstruction":{"parts":[{"text":"sys"}]},"generationConfig":{"maxOutputTokens":64},"contents":[{"role":"user","parts":[{"text":"hel"},{"text":"lo"}]}]}`), false))
	checks := map[string]string{
		"messages.0.role":    "system",
		"messages.0.content": "sys",
		"messages.1.role":    "user",
		"messages.1.content": "hello",
		"max_tokens":         "64",
	}
	for path, want := range checks {
		if got := back.Get(path).String(); got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
}

func TestTranslateRequest_UnregisteredPairPassesThrough(t *testing.T) {
	body := []byte(`{"contents":[]}`)
	if got := sdktranslator.TranslateRequest(sdktranslator.FormatGemini, sdktranslator.FormatClaude, "m", body, false); string(got) != string(body) {
		t.Fatalf("unregistered pair changed body: %s", got)
	}
}
