package executor

import (
	"net/http"
	"strings"

	"github.com/streambridge/streambridge/internal/config"
	"github.com/streambridge/streambridge/internal/constant"
	cliproxyexecutor "github.com/streambridge/streambridge/sdk/cliproxy/executor"
	sdktranslator "github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	claudeBaseURL      = "https://api.anthropic.com"
	claudeTokenURL     = "https://console.anthropic.com/v1/oauth/token"
	claudeMessagesPath = "/v1/messages"
	claudeAPIVersion   = "2023-06-01"
	claudeOAuthBeta    = "oauth-2025-04-20"
	defaultClaudeAgent = "claude-cli/1.0.83 (external, cli)"
)

// ClaudeExecutor talks to the Anthropic messages API.
type ClaudeExecutor struct {
	baseExecutor
}

// NewClaudeExecutor builds the Anthropic executor for provider id. Upstream and token
// calls share one transport that presents a Chrome TLS fingerprint.
func NewClaudeExecutor(cfg *config.Config, id string) *ClaudeExecutor {
	base := newBaseExecutor(cfg, id, sdktranslator.FormatClaude, []string{claudeBaseURL}, claudeTokenURL, defaultClaudeAgent)
	var sdkCfg *config.SDKConfig
	if cfg != nil {
		sdkCfg = &cfg.SDKConfig
	}
	base.transport = newFingerprintTransport(sdkCfg)
	return &ClaudeExecutor{baseExecutor: base}
}

// HTTPClient returns the client the service uses for messages calls. It has no timeout
// so streams are bounded by the request context only.
func (e *ClaudeExecutor) HTTPClient() *http.Client { return e.httpClient(0) }

func (e *ClaudeExecutor) BuildURL(_ string, _ bool, urlIndex int) (string, error) {
	base, err := e.baseURL(urlIndex)
	if err != nil {
		return "", err
	}
	return base + claudeMessagesPath, nil
}

// BuildHeaders sends x-api-key for static keys and a bearer token for OAuth credentials.
func (e *ClaudeExecutor) BuildHeaders(creds *cliproxyexecutor.Credentials, stream bool) http.Header {
	h := e.commonHeaders(stream)
	h.Set("Anthropic-Version", claudeAPIVersion)
	if creds == nil {
		return h
	}
	if key := strings.TrimSpace(creds.APIKey); key != "" {
		h.Set("X-Api-Key", key)
	} else if token := strings.TrimSpace(creds.AccessToken); token != "" {
		h.Set("Authorization", "Bearer "+token)
		h.Set("Anthropic-Beta", claudeOAuthBeta)
	}
	return h
}

func (e *ClaudeExecutor) TransformRequest(model string, body []byte, stream bool, _ *cliproxyexecutor.Credentials) ([]byte, error) {
	out := sdktranslator.TranslateRequest(constant.OpenAI, constant.Claude, model, body, stream)
	if len(gjson.GetBytes(out, "messages").Array()) == 0 {
		return nil, NewStatusError(http.StatusBadRequest, "claude: request has no messages")
	}
	return sjson.SetBytes(out, "stream", stream)
}
