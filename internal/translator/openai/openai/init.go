package openai

import (
	"github.com/streambridge/streambridge/sdk/translator"
)

func init() {
	translator.Register(translator.FormatOpenAI, translator.FormatOpenAI, nil, ConvertOpenAIResponseToOpenAI)
}
