package claude

import (
	"github.com/streambridge/streambridge/sdk/translator"
)

func init() {
	translator.Register(translator.FormatClaude, translator.FormatClaude, nil, ConvertClaudeResponseToClaude)
}
