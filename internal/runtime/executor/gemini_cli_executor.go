package executor

import (
	"net/http"
	"strings"

	"github.com/streambridge/streambridge/internal/config"
	"github.com/streambridge/streambridge/internal/constant"
	cliproxyexecutor "github.com/streambridge/streambridge/sdk/cliproxy/executor"
	sdktranslator "github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/sjson"
)

const (
	codeAssistEndpoint    = "https://cloudcode-pa.googleapis.com"
	codeAssistVersion     = "v1internal"
	geminiCLIUserAgent    = "GeminiCLI/0.1.5 (linux; x64)"
	geminiCLIApiClient    = "gl-node/22.17.0"
	geminiCLIClientMetaJS = "ideType=IDE_UNSPECIFIED,platform=PLATFORM_UNSPECIFIED,pluginType=GEMINI"
)

// GeminiCLIExecutor talks to the Cloud Code internal API used by the Gemini CLI.
type GeminiCLIExecutor struct {
	baseExecutor
}

// NewGeminiCLIExecutor builds the Gemini CLI executor for provider id.
func NewGeminiCLIExecutor(cfg *config.Config, id string) *GeminiCLIExecutor {
	return &GeminiCLIExecutor{baseExecutor: newBaseExecutor(cfg, id, sdktranslator.FormatGeminiCLI, []string{codeAssistEndpoint}, googleTokenURL, geminiCLIUserAgent)}
}

func (e *GeminiCLIExecutor) BuildURL(_ string, stream bool, urlIndex int) (string, error) {
	base, err := e.baseURL(urlIndex)
	if err != nil {
		return "", err
	}
	return codeAssistURL(base, stream), nil
}

func codeAssistURL(base string, stream bool) string {
	if stream {
		return base + "/" + codeAssistVersion + ":streamGenerateContent?alt=sse"
	}
	return base + "/" + codeAssistVersion + ":generateContent"
}

func (e *GeminiCLIExecutor) BuildHeaders(creds *cliproxyexecutor.Credentials, stream bool) http.Header {
	h := e.commonHeaders(stream)
	h.Set("X-Goog-Api-Client", geminiCLIApiClient)
	h.Set("Client-Metadata", geminiCLIClientMetaJS)
	if token := bearer(creds); token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

// TransformRequest wraps the Gemini request in the Code Assist envelope. A project id is
// generated when the credentials carry none.
func (e *GeminiCLIExecutor) TransformRequest(model string, body []byte, stream bool, creds *cliproxyexecutor.Credentials) ([]byte, error) {
	out := sdktranslator.TranslateRequest(constant.OpenAI, constant.GeminiCLI, model, body, stream)
	return sjson.SetBytes(out, "project", projectIDOf(creds))
}

func projectIDOf(creds *cliproxyexecutor.Credentials) string {
	if creds != nil {
		if pid := strings.TrimSpace(creds.ProjectID); pid != "" {
			return pid
		}
	}
	return generateProjectID()
}
