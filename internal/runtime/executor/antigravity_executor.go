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
	antigravityBaseURLDaily        = "https://daily-cloudcode-pa.googleapis.com"
	antigravitySandboxBaseURLDaily = "https://daily-cloudcode-pa.sandbox.googleapis.com"
	defaultAntigravityAgent        = "antigravity/1.104.0 darwin/arm64"
)

// AntigravityExecutor talks to the Cloud Code daily endpoints used by Antigravity.
// The daily and sandbox hosts form the default failover pool.
type AntigravityExecutor struct {
	baseExecutor
}

// NewAntigravityExecutor builds the Antigravity executor for provider id.
func NewAntigravityExecutor(cfg *config.Config, id string) *AntigravityExecutor {
	defaults := []string{antigravityBaseURLDaily, antigravitySandboxBaseURLDaily}
	return &AntigravityExecutor{baseExecutor: newBaseExecutor(cfg, id, sdktranslator.FormatAntigravity, defaults, googleTokenURL, defaultAntigravityAgent)}
}

func (e *AntigravityExecutor) BuildURL(_ string, stream bool, urlIndex int) (string, error) {
	base, err := e.baseURL(urlIndex)
	if err != nil {
		return "", err
	}
	return codeAssistURL(base, stream), nil
}

func (e *AntigravityExecutor) BuildHeaders(creds *cliproxyexecutor.Credentials, stream bool) http.Header {
	h := e.commonHeaders(stream)
	if token := bearer(creds); token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func (e *AntigravityExecutor) TransformRequest(model string, body []byte, stream bool, creds *cliproxyexecutor.Credentials) ([]byte, error) {
	payload := sdktranslator.TranslateRequest(constant.OpenAI, constant.Antigravity, model, body, stream)
	var sessionID string
	if creds != nil {
		sessionID = strings.TrimSpace(creds.SessionID)
	}
	if sessionID == "" {
		sessionID = generateSessionID()
	}
	return geminiToAntigravity(model, payload, projectIDOf(creds), sessionID), nil
}

// geminiToAntigravity stamps the agent envelope fields, strips safety settings the
// backend rejects and pins function calling to VALIDATED when tools are declared.
func geminiToAntigravity(modelName string, payload []byte, projectID, sessionID string) []byte {
	template, _ := sjson.Set(string(payload), "model", modelName)
	template, _ = sjson.Set(template, "userAgent", "antigravity")
	template, _ = sjson.Set(template, "requestType", "agent")
	template, _ = sjson.Set(template, "project", projectID)
	template, _ = sjson.Set(template, "requestId", generateRequestID())
	template, _ = sjson.Set(template, "request.sessionId", sessionID)

	template, _ = sjson.Delete(template, "request.safetySettings")
	if toolConfig := gjson.Get(template, "toolConfig"); toolConfig.Exists() {
		if !gjson.Get(template, "request.toolConfig").Exists() {
			template, _ = sjson.SetRaw(template, "request.toolConfig", toolConfig.Raw)
		}
		template, _ = sjson.Delete(template, "toolConfig")
	}

	if tools := gjson.Get(template, "request.tools"); tools.IsArray() && len(tools.Array()) > 0 {
		template, _ = sjson.Set(template, "request.toolConfig.functionCallingConfig.mode", "VALIDATED")
	} else {
		template, _ = sjson.Delete(template, "request.toolConfig")
	}
	return []byte(template)
}
