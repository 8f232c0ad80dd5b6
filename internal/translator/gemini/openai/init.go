package openai

import (
	"github.com/streambridge/streambridge/sdk/translator"
)

func init() {
	translator.Register(translator.FormatOpenAI, translator.FormatGemini, ConvertOpenAIRequestToGemini, nil)
	translator.Register(translator.FormatGemini, translator.FormatOpenAI, nil, ConvertGeminiResponseToOpenAI)
}
