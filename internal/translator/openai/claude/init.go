package claude

import (
	"github.com/streambridge/streambridge/sdk/translator"
)

func init() {
	translator.Register(translator.FormatClaude, translator.FormatOpenAI, ConvertClaudeRequestToOpenAI, nil)
	translator.Register(translator.FormatOpenAI, translator.FormatClaude, nil, ConvertOpenAIResponseToClaude)
}
