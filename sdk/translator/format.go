package translator

// Format identifies a request/response schema used inside the gateway.
type Format string

// FromString converts an arbitrary identifier to a translator format.
func FromString(v string) Format {
	return Format(v)
}

// String returns the raw schema identifier.
func (f Format) String() string {
	return string(f)
}

// Framing describes how a format slices a response into streamed units.
type Framing int

const (
	// FramingChunk formats stream self-contained chunk objects (OpenAI chunks, Gemini candidates).
	FramingChunk Framing = iota
	// FramingEventStream formats stream typed events that open and close content blocks.
	FramingEventStream
)

// FormatSpec is the static descriptor of a wire protocol.
type FormatSpec struct {
	// Format is the protocol identifier.
	Format Format
	// Framing tells chunk protocols apart from block/turn-oriented event protocols.
	Framing Framing
	// NamedEvents writes an "event: <type>" line ahead of every data line.
	NamedEvents bool
	// Sentinel is written once after the last event of a stream, if the protocol has one.
	Sentinel []byte
	// Envelope is the JSON key wrapping every payload (e.g. "response"), empty when unwrapped.
	Envelope string
}
