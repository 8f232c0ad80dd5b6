package openai

import (
	"github.com/streambridge/streambridge/sdk/translator"
)

func init() {
	translator.Register(translator.FormatOpenAI, translator.FormatClaude, ConvertOpenAIRequestToClaude, nil)
	translator.Register(translator.FormatClaude, translator.FormatOpenAI, nil, ConvertClaudeResponseToOpenAI)
}
