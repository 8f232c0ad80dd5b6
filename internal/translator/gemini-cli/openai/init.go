package openai

import (
	"github.com/streambridge/streambridge/sdk/translator"
)

func init() {
	translator.Register(translator.FormatOpenAI, translator.FormatGeminiCLI, ConvertOpenAIRequestToGeminiCLI, nil)
	translator.Register(translator.FormatGeminiCLI, translator.FormatOpenAI, nil, ConvertGeminiCLIResponseToOpenAI)
}
