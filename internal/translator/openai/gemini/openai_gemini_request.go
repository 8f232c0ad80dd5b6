package gemini

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ConvertGeminiRequestToOpenAI transforms a Gemini generateContent request into an OpenAI
// Chat Completions request. functionCall parts receive generated call ids which the
// matching functionResponse parts reuse, in order, per function name.
func ConvertGeminiRequestToOpenAI(modelName string, inputRawJSON []byte, stream bool) []byte {
	root := gjson.ParseBytes(inputRawJSON)
	out := `{"model":"","messages":[]}`
	out, _ = sjson.Set(out, "model", modelName)
	out, _ = sjson.Set(out, "stream", stream)
	if stream {
		out, _ = sjson.Set(out, "stream_options.include_usage", true)
	}

	if cfg := root.Get("generationConfig"); cfg.Exists() {
		if v := cfg.Get("temperature"); v.Exists() {
			out, _ = sjson.Set(out, "temperature", v.Float())
		}
		if v := cfg.Get("maxOutputTokens"); v.Exists() {
			out, _ = sjson.Set(out, "max_tokens", v.Int())
		}
		if v := cfg.Get("topP"); v.Exists() {
			out, _ = sjson.Set(out, "top_p", v.Float())
		}
		if v := cfg.Get("candidateCount"); v.Exists() {
			out, _ = sjson.Set(out, "n", v.Int())
		}
		if v := cfg.Get("stopSequences"); v.IsArray() {
			var stops []string
			v.ForEach(func(_, s gjson.Result) bool {
				stops = append(stops, s.String())
				return true
			})
			if len(stops) > 0 {
				out, _ = sjson.Set(out, "stop", stops)
			}
		}
		if level := cfg.Get("thinkingConfig.thinkingLevel").String(); level != "" {
			out, _ = sjson.Set(out, "reasoning_effort", strings.ToLower(level))
		} else if budget := cfg.Get("thinkingConfig.thinkingBudget"); budget.Exists() {
			out, _ = sjson.Set(out, "reasoning_effort", budgetEffort(budget.Int()))
		}
	}

	system := root.Get("systemInstruction")
	if !system.Exists() {
		system = root.Get("system_instruction")
	}
	if system.Exists() {
		var texts []string
		system.Get("parts").ForEach(func(_, part gjson.Result) bool {
			if text := part.Get("text").String(); text != "" {
				texts = append(texts, text)
			}
			return true
		})
		if len(texts) > 0 {
			msg := `{"role":"system","content":""}`
			msg, _ = sjson.Set(msg, "content", strings.Join(texts, "\n"))
			out, _ = sjson.SetRaw(out, "messages.-1", msg)
		}
	}

	pending := map[string][]string{}
	root.Get("contents").ForEach(func(_, content gjson.Result) bool {
		role := content.Get("role").String()
		if role == "model" {
			role = "assistant"
		}
		if role == "" {
			role = "user"
		}

		msg := `{"role":"","content":""}`
		msg, _ = sjson.Set(msg, "role", role)
		parts := "[]"
		var texts []string
		var toolMessages []string
		content.Get("parts").ForEach(func(_, part gjson.Result) bool {
			switch {
			case part.Get("text").Exists() && !part.Get("thought").Bool():
				texts = append(texts, part.Get("text").String())
				item := `{"type":"text","text":""}`
				item, _ = sjson.Set(item, "text", part.Get("text").String())
				parts, _ = sjson.SetRaw(parts, "-1", item)
			case part.Get("inlineData").Exists():
				data := part.Get("inlineData")
				mime := data.Get("mimeType").String()
				if mime == "" {
					mime = data.Get("mime_type").String()
				}
				item := `{"type":"image_url","image_url":{"url":""}}`
				item, _ = sjson.Set(item, "image_url.url", "data:"+mime+";base64,"+data.Get("data").String())
				parts, _ = sjson.SetRaw(parts, "-1", item)
			case part.Get("functionCall").Exists() && role == "assistant":
				fc := part.Get("functionCall")
				id := genToolCallID()
				pending[fc.Get("name").String()] = append(pending[fc.Get("name").String()], id)
				call := `{"id":"","type":"function","function":{"name":"","arguments":"{}"}}`
				call, _ = sjson.Set(call, "id", id)
				call, _ = sjson.Set(call, "function.name", fc.Get("name").String())
				if args := fc.Get("args"); args.Exists() {
					call, _ = sjson.Set(call, "function.arguments", args.Raw)
				}
				msg, _ = sjson.SetRaw(msg, "tool_calls.-1", call)
			case part.Get("functionResponse").Exists():
				fr := part.Get("functionResponse")
				name := fr.Get("name").String()
				id := genToolCallID()
				if ids := pending[name]; len(ids) > 0 {
					id, pending[name] = ids[0], ids[1:]
				}
				result := fr.Get("response.result")
				if !result.Exists() {
					result = fr.Get("response")
				}
				tool := `{"role":"tool","tool_call_id":"","content":""}`
				tool, _ = sjson.Set(tool, "tool_call_id", id)
				if result.Type == gjson.String {
					tool, _ = sjson.Set(tool, "content", result.String())
				} else {
					tool, _ = sjson.Set(tool, "content", result.Raw)
				}
				toolMessages = append(toolMessages, tool)
			}
			return true
		})

		if n := len(gjson.Parse(parts).Array()); n > 0 {
			if n == len(texts) {
				msg, _ = sjson.Set(msg, "content", strings.Join(texts, ""))
			} else {
				msg, _ = sjson.SetRaw(msg, "content", parts)
			}
		}
		if len(gjson.Parse(parts).Array()) > 0 || gjson.Get(msg, "tool_calls").Exists() {
			out, _ = sjson.SetRaw(out, "messages.-1", msg)
		}
		for _, tool := range toolMessages {
			out, _ = sjson.SetRaw(out, "messages.-1", tool)
		}
		return true
	})

	root.Get("tools").ForEach(func(_, tool gjson.Result) bool {
		tool.Get("functionDeclarations").ForEach(func(_, decl gjson.Result) bool {
			fn := `{"type":"function","function":{"name":"","description":""}}`
			fn, _ = sjson.Set(fn, "function.name", decl.Get("name").String())
			fn, _ = sjson.Set(fn, "function.description", decl.Get("description").String())
			params := decl.Get("parametersJsonSchema")
			if !params.Exists() {
				params = decl.Get("parameters")
			}
			if params.IsObject() {
				fn, _ = sjson.SetRaw(fn, "function.parameters", params.Raw)
			}
			out, _ = sjson.SetRaw(out, "tools.-1", fn)
			return true
		})
		return true
	})

	if mode := root.Get("toolConfig.functionCallingConfig.mode").String(); mode != "" {
		switch strings.ToUpper(mode) {
		case "NONE":
			out, _ = sjson.Set(out, "tool_choice", "none")
		case "ANY", "VALIDATED":
			out, _ = sjson.Set(out, "tool_choice", "required")
		default:
			out, _ = sjson.Set(out, "tool_choice", "auto")
		}
	}
	return []byte(out)
}

func budgetEffort(budget int64) string {
	switch {
	case budget == 0:
		return "none"
	case budget < 0:
		return "auto"
	case budget <= 4096:
		return "low"
	case budget <= 16384:
		return "medium"
	default:
		return "high"
	}
}

// genToolCallID creates a tool call id in the form call_<alphanum>.
func genToolCallID() string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	var b strings.Builder
	for i := 0; i < 24; i++ {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		b.WriteByte(letters[n.Int64()])
	}
	return "call_" + b.String()
}
