package translator

import "testing"

func TestEncodeSSE_NamedEvents(t *testing.T) {
	frame, err := EncodeSSE(FormatClaude, Event{Type: "message_stop", Data: []byte(`{"type":"message_stop"}`)})
	if err != nil {
		t.Fatalf("EncodeSSE() error = %v", err)
	}
	want := "event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n"
	if string(frame) != want {
		t.Fatalf("frame = %q, want %q", frame, want)
	}
}

func TestEncodeSSE_EventNameFromPayload(t *testing.T) {
	frame, err := EncodeSSE(FormatClaude, Event{Data: []byte(`{"type":"ping"}`)})
	if err != nil {
		t.Fatalf("EncodeSSE() error = %v", err)
	}
	if want := "event: ping\ndata: {\"type\":\"ping\"}\n\n"; string(frame) != want {
		t.Fatalf("frame = %q, want %q", frame, want)
	}
}

func TestEncodeSSE_ChunkProtocols(t *testing.T) {
	for _, format := range []Format{FormatOpenAI, FormatGemini, FormatGeminiCLI, FormatAntigravity} {
		frame, err := EncodeSSE(format, Event{Type: "ignored", Data: []byte(`{"a":1}`)})
		if err != nil {
			t.Fatalf("%s: EncodeSSE() error = %v", format, err)
		}
		if want := "data: {\"a\":1}\n\n"; string(frame) != want {
			t.Fatalf("%s: frame = %q, want %q", format, frame, want)
		}
	}
}

func TestEncodeSSE_UnknownFormat(t *testing.T) {
	_, err := EncodeSSE(Format("bogus"), Event{Data: []byte(`{}`)})
	if !IsUnsupportedFormat(err) {
		t.Fatalf("error = %v, want UnsupportedFormatError", err)
	}
}

func TestSentinel(t *testing.T) {
	if got := string(Sentinel(FormatOpenAI)); got != "data: [DONE]\n\n" {
		t.Fatalf("openai sentinel = %q", got)
	}
	if got := Sentinel(FormatClaude); got != nil {
		t.Fatalf("claude sentinel = %q, want none", got)
	}
}

func TestFormats(t *testing.T) {
	got := Formats()
	want := []Format{FormatAntigravity, FormatClaude, FormatGemini, FormatGeminiCLI, FormatOpenAI}
	if len(got) != len(want) {
		t.Fatalf("Formats() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Formats()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
