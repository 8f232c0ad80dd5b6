package geminicli

import (
	"github.com/streambridge/streambridge/sdk/translator"
)

func init() {
	for _, envelope := range []translator.Format{translator.FormatGeminiCLI, translator.FormatAntigravity} {
		translator.Register(envelope, translator.FormatOpenAI, ConvertGeminiCLIRequestToOpenAI, nil)
		translator.Register(translator.FormatOpenAI, envelope, nil, ConvertOpenAIResponseToGeminiCLI)
	}
}
