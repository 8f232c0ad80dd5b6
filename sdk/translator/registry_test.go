package translator

import (
	"context"
	"errors"
	"testing"
)

func echoConverter(_ context.Context, rawJSON []byte, state *State) []Event {
	if rawJSON == nil {
		return []Event{{Data: []byte(`{"flush":true}`)}}
	}
	if string(rawJSON) == `{"bad":true}` {
		state.Drop("bad payload")
		return nil
	}
	return []Event{{Data: rawJSON}}
}

func TestRegistry_TranslateLifecycle(t *testing.T) {
	r := NewRegistry()
	r.Register(FormatOpenAI, FormatGemini, nil, echoConverter)

	state, err := r.InitState(FormatOpenAI, FormatGemini, "m")
	if err != nil {
		t.Fatalf("InitState() error = %v", err)
	}
	ctx := context.Background()

	events, err := r.Translate(ctx, FormatOpenAI, FormatGemini, []byte(`data: {"x":1}`), state)
	if err != nil || len(events) != 1 || string(events[0].Data) != `{"x":1}` {
		t.Fatalf("Translate() = %v, %v", events, err)
	}
	if events, _ = r.Translate(ctx, FormatOpenAI, FormatGemini, []byte("data: [DONE]"), state); len(events) != 0 {
		t.Fatalf("[DONE] produced events: %v", events)
	}

	events, err = r.Translate(ctx, FormatOpenAI, FormatGemini, nil, state)
	if err != nil || len(events) != 1 {
		t.Fatalf("flush = %v, %v", events, err)
	}
	if !state.Flushed || !state.Terminated {
		t.Fatalf("state after flush: flushed=%v terminated=%v", state.Flushed, state.Terminated)
	}

	events, err = r.Translate(ctx, FormatOpenAI, FormatGemini, nil, state)
	if err != nil || len(events) != 0 {
		t.Fatalf("second flush = %v, %v", events, err)
	}
	events, err = r.Translate(ctx, FormatOpenAI, FormatGemini, []byte(`{"late":true}`), state)
	if err != nil || len(events) != 0 {
		t.Fatalf("delta after flush = %v, %v", events, err)
	}
}

func TestRegistry_MalformedDelta(t *testing.T) {
	r := NewRegistry()
	r.Register(FormatOpenAI, FormatGemini, nil, echoConverter)
	var observed []string
	r.SetDropObserver(func(from, to Format, reason string) {
		observed = append(observed, string(from)+">"+string(to)+":"+reason)
	})

	state, _ := r.InitState(FormatOpenAI, FormatGemini, "m")
	events, err := r.Translate(context.Background(), FormatOpenAI, FormatGemini, []byte(`{"bad":true}`), state)
	if err != nil || len(events) != 0 {
		t.Fatalf("lenient Translate() = %v, %v", events, err)
	}
	if len(observed) != 1 || observed[0] != "openai>gemini:bad payload" {
		t.Fatalf("observed = %v", observed)
	}

	r.SetStrict(true)
	_, err = r.Translate(context.Background(), FormatOpenAI, FormatGemini, []byte(`{"bad":true}`), state)
	var malformed *MalformedDeltaError
	if !errors.As(err, &malformed) {
		t.Fatalf("strict Translate() error = %v, want MalformedDeltaError", err)
	}
	if state.Dropped != 2 {
		t.Fatalf("Dropped = %d, want 2", state.Dropped)
	}
}

func TestRegistry_UnsupportedPair(t *testing.T) {
	r := NewRegistry()
	if _, err := r.InitState(FormatOpenAI, FormatClaude, "m"); !IsUnsupportedFormat(err) {
		t.Fatalf("unregistered pair error = %v", err)
	}
	if _, err := r.InitState(Format("bogus"), FormatClaude, "m"); !IsUnsupportedFormat(err) {
		t.Fatalf("unknown format error = %v", err)
	}
	if _, err := r.Translate(context.Background(), FormatOpenAI, FormatClaude, []byte(`{}`), nil); !errors.Is(err, ErrNilState) {
		t.Fatalf("nil state error = %v", err)
	}
}

func TestRegistry_AggregateDefault(t *testing.T) {
	r := NewRegistry()
	out, err := r.Aggregate(FormatGemini, []Event{{Data: []byte(`{"a":1}`)}, {Data: []byte(`{"b":2}`)}}, nil)
	if err != nil || string(out) != `{"b":2}` {
		t.Fatalf("Aggregate() = %s, %v", out, err)
	}
	out, _ = r.Aggregate(FormatGemini, nil, nil)
	if string(out) != `{}` {
		t.Fatalf("Aggregate(empty) = %s", out)
	}
}
