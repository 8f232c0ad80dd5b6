package gemini

import (
	"github.com/streambridge/streambridge/sdk/translator"
)

func init() {
	translator.Register(translator.FormatGemini, translator.FormatGemini, nil, ConvertGeminiResponseToGemini)
	translator.Register(translator.FormatGeminiCLI, translator.FormatGeminiCLI, nil, ConvertEnvelopeResponseToEnvelope)
	translator.Register(translator.FormatAntigravity, translator.FormatAntigravity, nil, ConvertEnvelopeResponseToEnvelope)
}
