package executor

import (
	"strings"

	sdktranslator "github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/gjson"
	"github.com/tiktoken-go/tokenizer"
)

// tokenizerForModel returns a tokenizer codec for model, defaulting to o200k_base.
func tokenizerForModel(model string) (tokenizer.Codec, error) {
	sanitized := strings.ToLower(strings.TrimSpace(model))
	switch {
	case sanitized == "":
		return tokenizer.Get(tokenizer.Cl100kBase)
	case strings.HasPrefix(sanitized, "gpt-4o"):
		return tokenizer.ForModel(tokenizer.GPT4o)
	case strings.HasPrefix(sanitized, "gpt-4"):
		return tokenizer.ForModel(tokenizer.GPT4)
	case strings.HasPrefix(sanitized, "gpt-3.5"):
		return tokenizer.ForModel(tokenizer.GPT35Turbo)
	default:
		return tokenizer.Get(tokenizer.O200kBase)
	}
}

// CountText estimates the tokens of text for model. It falls back to a four-bytes-per-token
// heuristic when no codec is available.
func CountText(model, text string) int64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	enc, err := tokenizerForModel(model)
	if err == nil {
		if n, errCount := enc.Count(text); errCount == nil {
			return int64(n)
		}
	}
	return int64((len(text) + 3) / 4)
}

// EstimateUsage approximates token usage of a canonical request and its completion text.
func EstimateUsage(model string, request []byte, completion string) sdktranslator.Usage {
	prompt := CountText(model, strings.Join(promptSegments(gjson.ParseBytes(request)), "\n"))
	out := CountText(model, completion)
	return sdktranslator.Usage{PromptTokens: prompt, CompletionTokens: out, TotalTokens: prompt + out}
}

func promptSegments(root gjson.Result) []string {
	segments := make([]string, 0, 16)
	add := func(v string) {
		if v = strings.TrimSpace(v); v != "" {
			segments = append(segments, v)
		}
	}
	root.Get("messages").ForEach(func(_, message gjson.Result) bool {
		add(message.Get("role").String())
		content := message.Get("content")
		switch {
		case content.Type == gjson.String:
			add(content.String())
		case content.IsArray():
			content.ForEach(func(_, part gjson.Result) bool {
				add(part.Get("text").String())
				return true
			})
		}
		message.Get("tool_calls").ForEach(func(_, call gjson.Result) bool {
			add(call.Get("function.name").String())
			add(call.Get("function.arguments").String())
			return true
		})
		return true
	})
	root.Get("tools").ForEach(func(_, tool gjson.Result) bool {
		add(tool.Get("function.name").String())
		add(tool.Get("function.description").String())
		if params := tool.Get("function.parameters"); params.Exists() {
			add(params.Raw)
		}
		return true
	})
	return segments
}
