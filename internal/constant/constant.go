// Package constant defines the provider identifiers understood by the executor registry.
package constant

const (
	// OpenAI identifies OpenAI compatible chat completion backends. It is also the variant
	// used for any provider identifier that is not recognised.
	OpenAI = "openai"

	// Claude identifies the Anthropic Messages API.
	Claude = "claude"

	// Gemini identifies the public Gemini generateContent API.
	Gemini = "gemini"

	// GeminiCLI identifies the Cloud Code internal API used by Gemini CLI.
	GeminiCLI = "gemini-cli"

	// Antigravity identifies the Antigravity variant of the Cloud Code internal API.
	Antigravity = "antigravity"
)
