// Package openai registers the Antigravity translators. Antigravity shares the Cloud Code
// envelope with Gemini CLI; the executor adds the Antigravity specific request fields.
package openai

import (
	geminicli "github.com/streambridge/streambridge/internal/translator/gemini-cli/openai"
	"github.com/streambridge/streambridge/sdk/translator"
)

func init() {
	translator.Register(translator.FormatOpenAI, translator.FormatAntigravity, geminicli.ConvertOpenAIRequestToGeminiCLI, nil)
	translator.Register(translator.FormatAntigravity, translator.FormatOpenAI, nil, geminicli.ConvertGeminiCLIResponseToOpenAI)
}
