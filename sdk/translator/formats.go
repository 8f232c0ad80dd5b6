package translator

import "sort"

// Common format identifiers exposed for SDK users.
const (
	FormatOpenAI      Format = "openai"
	FormatClaude      Format = "claude"
	FormatGemini      Format = "gemini"
	FormatGeminiCLI   Format = "gemini-cli"
	FormatAntigravity Format = "antigravity"
)

// Canonical is the pivot format every translation passes through.
const Canonical = FormatOpenAI

var builtinSpecs = map[Format]FormatSpec{
	FormatOpenAI: {
		Format:   FormatOpenAI,
		Framing:  FramingChunk,
		Sentinel: []byte("data: [DONE]\n\n"),
	},
	FormatClaude: {
		Format:      FormatClaude,
		Framing:     FramingEventStream,
		NamedEvents: true,
	},
	FormatGemini: {
		Format:  FormatGemini,
		Framing: FramingChunk,
	},
	FormatGeminiCLI: {
		Format:   FormatGeminiCLI,
		Framing:  FramingChunk,
		Envelope: "response",
	},
	FormatAntigravity: {
		Format:   FormatAntigravity,
		Framing:  FramingChunk,
		Envelope: "response",
	},
}

// Lookup returns the descriptor of a known format.
func Lookup(f Format) (FormatSpec, error) {
	spec, ok := builtinSpecs[f]
	if !ok {
		return FormatSpec{}, &UnsupportedFormatError{Format: f}
	}
	return spec, nil
}

// Validate reports whether f names a supported wire protocol.
func Validate(f Format) error {
	_, err := Lookup(f)
	return err
}

// Formats lists every supported format in a stable order.
func Formats() []Format {
	out := make([]Format, 0, len(builtinSpecs))
	for f := range builtinSpecs {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
