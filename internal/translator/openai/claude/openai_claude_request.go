package claude

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ConvertClaudeRequestToOpenAI transforms an Anthropic Messages request into an OpenAI Chat
// Completions request. System blocks become a leading system message, tool_result blocks
// become tool messages placed before the message that carried them, and tool_use blocks on
// assistant turns become tool_calls.
func ConvertClaudeRequestToOpenAI(modelName string, inputRawJSON []byte, stream bool) []byte {
	root := gjson.ParseBytes(inputRawJSON)
	out := `{"model":"","messages":[]}`
	out, _ = sjson.Set(out, "model", modelName)

	if maxTokens := root.Get("max_tokens"); maxTokens.Exists() {
		out, _ = sjson.Set(out, "max_tokens", maxTokens.Int())
	}
	if temp := root.Get("temperature"); temp.Exists() {
		out, _ = sjson.Set(out, "temperature", temp.Float())
	} else if topP := root.Get("top_p"); topP.Exists() {
		out, _ = sjson.Set(out, "top_p", topP.Float())
	}
	if stops := root.Get("stop_sequences"); stops.IsArray() && len(stops.Array()) > 0 {
		var list []string
		stops.ForEach(func(_, v gjson.Result) bool {
			list = append(list, v.String())
			return true
		})
		if len(list) == 1 {
			out, _ = sjson.Set(out, "stop", list[0])
		} else {
			out, _ = sjson.Set(out, "stop", list)
		}
	}
	out, _ = sjson.Set(out, "stream", stream)
	if stream {
		out, _ = sjson.Set(out, "stream_options.include_usage", true)
	}

	if cfg := root.Get("thinking"); cfg.IsObject() {
		switch cfg.Get("type").String() {
		case "enabled":
			out, _ = sjson.Set(out, "reasoning_effort", budgetToEffort(cfg.Get("budget_tokens").Int()))
		case "adaptive":
			out, _ = sjson.Set(out, "reasoning_effort", "high")
		}
	}

	messages := "[]"
	system := `{"role":"system","content":[]}`
	hasSystem := false
	if sys := root.Get("system"); sys.Type == gjson.String && sys.String() != "" {
		part := `{"type":"text","text":""}`
		part, _ = sjson.Set(part, "text", sys.String())
		system, _ = sjson.SetRaw(system, "content.-1", part)
		hasSystem = true
	} else if sys.IsArray() {
		sys.ForEach(func(_, item gjson.Result) bool {
			if part, ok := convertClaudeContentPart(item); ok {
				system, _ = sjson.SetRaw(system, "content.-1", part)
				hasSystem = true
			}
			return true
		})
	}
	if hasSystem {
		messages, _ = sjson.SetRaw(messages, "-1", system)
	}

	root.Get("messages").ForEach(func(_, message gjson.Result) bool {
		role := message.Get("role").String()
		content := message.Get("content")
		if content.Type == gjson.String {
			msg := `{"role":"","content":""}`
			msg, _ = sjson.Set(msg, "role", role)
			msg, _ = sjson.Set(msg, "content", content.String())
			messages, _ = sjson.SetRaw(messages, "-1", msg)
			return true
		}
		if !content.IsArray() {
			return true
		}

		parts := "[]"
		toolCalls := "[]"
		var reasoning []string
		var toolResults []string
		content.ForEach(func(_, part gjson.Result) bool {
			switch part.Get("type").String() {
			case "thinking":
				if role == "assistant" && strings.TrimSpace(part.Get("thinking").String()) != "" {
					reasoning = append(reasoning, part.Get("thinking").String())
				}
			case "text", "image":
				if item, ok := convertClaudeContentPart(part); ok {
					parts, _ = sjson.SetRaw(parts, "-1", item)
				}
			case "tool_use":
				if role != "assistant" {
					return true
				}
				call := `{"id":"","type":"function","function":{"name":"","arguments":"{}"}}`
				call, _ = sjson.Set(call, "id", part.Get("id").String())
				call, _ = sjson.Set(call, "function.name", part.Get("name").String())
				if input := part.Get("input"); input.Exists() {
					call, _ = sjson.Set(call, "function.arguments", input.Raw)
				}
				toolCalls, _ = sjson.SetRaw(toolCalls, "-1", call)
			case "tool_result":
				result := `{"role":"tool","tool_call_id":"","content":""}`
				result, _ = sjson.Set(result, "tool_call_id", part.Get("tool_use_id").String())
				result, _ = sjson.Set(result, "content", toolResultText(part.Get("content")))
				toolResults = append(toolResults, result)
			}
			return true
		})

		// Tool messages must directly follow the assistant turn that requested them.
		for _, result := range toolResults {
			messages, _ = sjson.SetRaw(messages, "-1", result)
		}

		hasParts := len(gjson.Parse(parts).Array()) > 0
		hasCalls := len(gjson.Parse(toolCalls).Array()) > 0
		switch {
		case role == "assistant" && (hasParts || hasCalls || len(reasoning) > 0):
			msg := `{"role":"assistant","content":""}`
			if hasParts {
				msg, _ = sjson.SetRaw(msg, "content", parts)
			}
			if len(reasoning) > 0 {
				msg, _ = sjson.Set(msg, "reasoning_content", strings.Join(reasoning, "\n\n"))
			}
			if hasCalls {
				msg, _ = sjson.SetRaw(msg, "tool_calls", toolCalls)
			}
			messages, _ = sjson.SetRaw(messages, "-1", msg)
		case role != "assistant" && hasParts:
			msg := `{"role":"","content":[]}`
			msg, _ = sjson.Set(msg, "role", role)
			msg, _ = sjson.SetRaw(msg, "content", parts)
			messages, _ = sjson.SetRaw(messages, "-1", msg)
		}
		return true
	})
	out, _ = sjson.SetRaw(out, "messages", messages)

	if tools := root.Get("tools"); tools.IsArray() && len(tools.Array()) > 0 {
		list := "[]"
		tools.ForEach(func(_, tool gjson.Result) bool {
			fn := `{"type":"function","function":{"name":"","description":""}}`
			fn, _ = sjson.Set(fn, "function.name", tool.Get("name").String())
			fn, _ = sjson.Set(fn, "function.description", tool.Get("description").String())
			if schema := tool.Get("input_schema"); schema.Exists() {
				fn, _ = sjson.SetRaw(fn, "function.parameters", schema.Raw)
			}
			list, _ = sjson.SetRaw(list, "-1", fn)
			return true
		})
		out, _ = sjson.SetRaw(out, "tools", list)
	}

	if choice := root.Get("tool_choice"); choice.Exists() {
		switch choice.Get("type").String() {
		case "any":
			out, _ = sjson.Set(out, "tool_choice", "required")
		case "none":
			out, _ = sjson.Set(out, "tool_choice", "none")
		case "tool":
			named := `{"type":"function","function":{"name":""}}`
			named, _ = sjson.Set(named, "function.name", choice.Get("name").String())
			out, _ = sjson.SetRaw(out, "tool_choice", named)
		default:
			out, _ = sjson.Set(out, "tool_choice", "auto")
		}
	}
	if user := root.Get("metadata.user_id"); user.Exists() {
		out, _ = sjson.Set(out, "user", user.String())
	}
	return []byte(out)
}

// budgetToEffort maps an Anthropic thinking budget onto an OpenAI reasoning effort level.
func budgetToEffort(budget int64) string {
	switch {
	case budget <= 0:
		return "medium"
	case budget <= 4096:
		return "low"
	case budget <= 16384:
		return "medium"
	default:
		return "high"
	}
}

func convertClaudeContentPart(part gjson.Result) (string, bool) {
	switch part.Get("type").String() {
	case "text":
		text := part.Get("text").String()
		if strings.TrimSpace(text) == "" {
			return "", false
		}
		out := `{"type":"text","text":""}`
		out, _ = sjson.Set(out, "text", text)
		return out, true
	case "image":
		var url string
		source := part.Get("source")
		switch source.Get("type").String() {
		case "base64":
			mediaType := source.Get("media_type").String()
			if mediaType == "" {
				mediaType = "application/octet-stream"
			}
			if data := source.Get("data").String(); data != "" {
				url = "data:" + mediaType + ";base64," + data
			}
		case "url":
			url = source.Get("url").String()
		}
		if url == "" {
			return "", false
		}
		out := `{"type":"image_url","image_url":{"url":""}}`
		out, _ = sjson.Set(out, "image_url.url", url)
		return out, true
	default:
		return "", false
	}
}

func toolResultText(content gjson.Result) string {
	switch {
	case !content.Exists():
		return ""
	case content.Type == gjson.String:
		return content.String()
	case content.IsArray():
		var parts []string
		content.ForEach(func(_, item gjson.Result) bool {
			if text := item.Get("text"); text.Type == gjson.String {
				parts = append(parts, text.String())
			} else {
				parts = append(parts, item.Raw)
			}
			return true
		})
		return strings.Join(parts, "\n\n")
	default:
		return content.Raw
	}
}
