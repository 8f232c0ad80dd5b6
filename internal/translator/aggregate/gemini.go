package aggregate

import (
	"strconv"

	"github.com/streambridge/streambridge/internal/translator/gemini/common"
	"github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Gemini merges Gemini chunks into one GenerateContentResponse. Adjacent text parts of the
// same kind (thought or answer) are concatenated; function calls are kept in order.
func Gemini(events []translator.Event, state *translator.State) []byte {
	return mergeGemini(events, nil, state)
}

// Envelope aggregates Gemini CLI and Antigravity chunks inside the "response" envelope.
func Envelope(events []translator.Event, state *translator.State) []byte {
	return common.WrapEnvelope(mergeGemini(events, common.UnwrapEnvelope, state))
}

func mergeGemini(events []translator.Event, unwrap func([]byte) []byte, state *translator.State) []byte {
	out := []byte(`{"candidates":[{"content":{"parts":[],"role":"model"},"index":0}]}`)
	parts := []byte(`[]`)
	count := 0
	lastKind := ""
	for _, ev := range events {
		data := ev.Data
		if unwrap != nil {
			data = unwrap(data)
		}
		root := gjson.ParseBytes(data)
		for _, key := range []string{"modelVersion", "responseId", "createTime"} {
			if v := root.Get(key); v.Exists() && !gjson.GetBytes(out, key).Exists() {
				out, _ = sjson.SetBytes(out, key, v.String())
			}
		}
		root.Get("candidates.0.content.parts").ForEach(func(_, part gjson.Result) bool {
			kind := "other"
			if part.Get("text").Exists() && len(part.Map()) <= 2 {
				kind = "text"
				if part.Get("thought").Bool() {
					kind = "thought"
				}
			}
			if kind != "other" && kind == lastKind && count > 0 {
				path := strconv.Itoa(count-1) + ".text"
				prev := gjson.GetBytes(parts, path).String()
				parts, _ = sjson.SetBytes(parts, path, prev+part.Get("text").String())
				return true
			}
			parts, _ = sjson.SetRawBytes(parts, "-1", []byte(part.Raw))
			count++
			lastKind = kind
			return true
		})
		if finish := root.Get("candidates.0.finishReason"); finish.Exists() {
			out, _ = sjson.SetBytes(out, "candidates.0.finishReason", finish.String())
		}
		if usage := root.Get("usageMetadata"); usage.Exists() {
			out, _ = sjson.SetRawBytes(out, "usageMetadata", []byte(usage.Raw))
		}
	}
	out, _ = sjson.SetRawBytes(out, "candidates.0.content.parts", parts)
	if !gjson.GetBytes(out, "candidates.0.finishReason").Exists() {
		out, _ = sjson.SetBytes(out, "candidates.0.finishReason", "STOP")
	}
	if !gjson.GetBytes(out, "usageMetadata").Exists() && state != nil && state.Usage != nil {
		u := state.Usage
		out, _ = sjson.SetBytes(out, "usageMetadata.promptTokenCount", u.PromptTokens)
		out, _ = sjson.SetBytes(out, "usageMetadata.candidatesTokenCount", u.CompletionTokens-u.ReasoningTokens)
		out, _ = sjson.SetBytes(out, "usageMetadata.totalTokenCount", u.Total())
		if u.ReasoningTokens > 0 {
			out, _ = sjson.SetBytes(out, "usageMetadata.thoughtsTokenCount", u.ReasoningTokens)
		}
	}
	if !gjson.GetBytes(out, "modelVersion").Exists() && state != nil && state.Model != "" {
		out, _ = sjson.SetBytes(out, "modelVersion", state.Model)
	}
	return out
}
