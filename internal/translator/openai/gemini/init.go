package gemini

import (
	"github.com/streambridge/streambridge/sdk/translator"
)

func init() {
	translator.Register(translator.FormatGemini, translator.FormatOpenAI, ConvertGeminiRequestToOpenAI, nil)
	translator.Register(translator.FormatOpenAI, translator.FormatGemini, nil, ConvertOpenAIResponseToGemini)
}
