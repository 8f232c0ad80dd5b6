package executor

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/streambridge/streambridge/internal/config"
	"github.com/streambridge/streambridge/internal/constant"
	cliproxyexecutor "github.com/streambridge/streambridge/sdk/cliproxy/executor"
	sdktranslator "github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/sjson"
)

const (
	glEndpoint       = "https://generativelanguage.googleapis.com"
	glAPIVersion     = "v1beta"
	googleTokenURL   = "https://oauth2.googleapis.com/token"
	defaultGoogAgent = "google-genai-sdk/1.30.0 gl-go/go1.24"
)

// GeminiExecutor talks to the public Generative Language API.
type GeminiExecutor struct {
	baseExecutor
}

// NewGeminiExecutor builds the Gemini executor for provider id.
func NewGeminiExecutor(cfg *config.Config, id string) *GeminiExecutor {
	return &GeminiExecutor{baseExecutor: newBaseExecutor(cfg, id, sdktranslator.FormatGemini, []string{glEndpoint}, googleTokenURL, defaultGoogAgent)}
}

func (e *GeminiExecutor) BuildURL(model string, stream bool, urlIndex int) (string, error) {
	base, err := e.baseURL(urlIndex)
	if err != nil {
		return "", err
	}
	action := "generateContent"
	if stream {
		action = "streamGenerateContent"
	}
	u := base + "/" + glAPIVersion + "/models/" + url.PathEscape(model) + ":" + action
	if stream {
		u += "?alt=sse"
	}
	return u, nil
}

func (e *GeminiExecutor) BuildHeaders(creds *cliproxyexecutor.Credentials, stream bool) http.Header {
	h := e.commonHeaders(stream)
	if creds == nil {
		return h
	}
	if key := strings.TrimSpace(creds.APIKey); key != "" {
		h.Set("X-Goog-Api-Key", key)
	} else if token := strings.TrimSpace(creds.AccessToken); token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func (e *GeminiExecutor) TransformRequest(model string, body []byte, stream bool, _ *cliproxyexecutor.Credentials) ([]byte, error) {
	out := sdktranslator.TranslateRequest(constant.OpenAI, constant.Gemini, model, body, stream)
	// The model travels in the URL path.
	return sjson.DeleteBytes(out, "model")
}
