package executor

import (
	"net/http"

	"github.com/streambridge/streambridge/internal/config"
	"github.com/streambridge/streambridge/internal/constant"
	cliproxyexecutor "github.com/streambridge/streambridge/sdk/cliproxy/executor"
	sdktranslator "github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/sjson"
)

const openAIBaseURL = "https://api.openai.com/v1"

// OpenAIExecutor talks to OpenAI-compatible chat completion endpoints. It is the
// default variant and serves every provider identifier without a dedicated executor.
type OpenAIExecutor struct {
	baseExecutor
}

// NewOpenAIExecutor builds the generic executor for provider id.
func NewOpenAIExecutor(cfg *config.Config, id string) *OpenAIExecutor {
	var defaults []string
	if id == constant.OpenAI {
		defaults = []string{openAIBaseURL}
	}
	return &OpenAIExecutor{baseExecutor: newBaseExecutor(cfg, id, sdktranslator.FormatOpenAI, defaults, "", "")}
}

func (e *OpenAIExecutor) BuildURL(_ string, _ bool, urlIndex int) (string, error) {
	base, err := e.baseURL(urlIndex)
	if err != nil {
		return "", err
	}
	return base + "/chat/completions", nil
}

func (e *OpenAIExecutor) BuildHeaders(creds *cliproxyexecutor.Credentials, stream bool) http.Header {
	h := e.commonHeaders(stream)
	if token := bearer(creds); token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func (e *OpenAIExecutor) TransformRequest(model string, body []byte, stream bool, _ *cliproxyexecutor.Credentials) ([]byte, error) {
	out := body
	var err error
	if model != "" {
		if out, err = sjson.SetBytes(out, "model", model); err != nil {
			return nil, err
		}
	}
	if out, err = sjson.SetBytes(out, "stream", stream); err != nil {
		return nil, err
	}
	if stream {
		out, err = sjson.SetBytes(out, "stream_options.include_usage", true)
	} else {
		out, err = sjson.DeleteBytes(out, "stream_options")
	}
	return out, err
}
