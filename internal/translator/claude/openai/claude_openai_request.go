package openai

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const defaultMaxTokens = 32000

// ConvertOpenAIRequestToClaude transforms an OpenAI Chat Completions request into an
// Anthropic Messages request.
//
// System messages are collected into the top-level system field, assistant tool_calls
// become tool_use blocks and tool messages become user turns carrying tool_result blocks.
func ConvertOpenAIRequestToClaude(modelName string, inputRawJSON []byte, stream bool) []byte {
	root := gjson.ParseBytes(inputRawJSON)
	out := fmt.Sprintf(`{"model":"","max_tokens":%d,"messages":[]}`, defaultMaxTokens)
	out, _ = sjson.Set(out, "model", modelName)

	if maxTokens := root.Get("max_completion_tokens"); maxTokens.Exists() {
		out, _ = sjson.Set(out, "max_tokens", maxTokens.Int())
	} else if maxTokens = root.Get("max_tokens"); maxTokens.Exists() {
		out, _ = sjson.Set(out, "max_tokens", maxTokens.Int())
	}
	if temp := root.Get("temperature"); temp.Exists() {
		out, _ = sjson.Set(out, "temperature", temp.Float())
	} else if topP := root.Get("top_p"); topP.Exists() {
		out, _ = sjson.Set(out, "top_p", topP.Float())
	}
	if stop := root.Get("stop"); stop.Exists() {
		if stop.IsArray() {
			var list []string
			stop.ForEach(func(_, v gjson.Result) bool {
				list = append(list, v.String())
				return true
			})
			if len(list) > 0 {
				out, _ = sjson.Set(out, "stop_sequences", list)
			}
		} else if stop.String() != "" {
			out, _ = sjson.Set(out, "stop_sequences", []string{stop.String()})
		}
	}
	out, _ = sjson.Set(out, "stream", stream)

	if effort := strings.ToLower(strings.TrimSpace(root.Get("reasoning_effort").String())); effort != "" {
		if budget, ok := effortBudget(effort); ok {
			if budget == 0 {
				out, _ = sjson.Set(out, "thinking.type", "disabled")
			} else {
				out, _ = sjson.Set(out, "thinking.type", "enabled")
				out, _ = sjson.Set(out, "thinking.budget_tokens", budget)
			}
		}
	}

	root.Get("messages").ForEach(func(_, message gjson.Result) bool {
		role := message.Get("role").String()
		content := message.Get("content")
		switch role {
		case "system", "developer":
			appendText := func(text string) {
				if text == "" {
					return
				}
				part := `{"type":"text","text":""}`
				part, _ = sjson.Set(part, "text", text)
				out, _ = sjson.SetRaw(out, "system.-1", part)
			}
			if content.Type == gjson.String {
				appendText(content.String())
			} else {
				content.ForEach(func(_, part gjson.Result) bool {
					if part.Get("type").String() == "text" {
						appendText(part.Get("text").String())
					}
					return true
				})
			}

		case "user", "assistant":
			msg := `{"role":"","content":[]}`
			msg, _ = sjson.Set(msg, "role", role)
			if content.Type == gjson.String && content.String() != "" {
				part := `{"type":"text","text":""}`
				part, _ = sjson.Set(part, "text", content.String())
				msg, _ = sjson.SetRaw(msg, "content.-1", part)
			} else if content.IsArray() {
				content.ForEach(func(_, part gjson.Result) bool {
					if block, ok := convertOpenAIContentPart(part); ok {
						msg, _ = sjson.SetRaw(msg, "content.-1", block)
					}
					return true
				})
			}
			if role == "assistant" {
				message.Get("tool_calls").ForEach(func(_, call gjson.Result) bool {
					id := call.Get("id").String()
					if id == "" {
						id = genToolCallID()
					}
					block := `{"type":"tool_use","id":"","name":"","input":{}}`
					block, _ = sjson.Set(block, "id", id)
					block, _ = sjson.Set(block, "name", call.Get("function.name").String())
					if args := call.Get("function.arguments").String(); gjson.Valid(args) && gjson.Parse(args).IsObject() {
						block, _ = sjson.SetRaw(block, "input", args)
					}
					msg, _ = sjson.SetRaw(msg, "content.-1", block)
					return true
				})
			}
			if len(gjson.Get(msg, "content").Array()) > 0 {
				out, _ = sjson.SetRaw(out, "messages.-1", msg)
			}

		case "tool":
			msg := `{"role":"user","content":[{"type":"tool_result","tool_use_id":"","content":""}]}`
			msg, _ = sjson.Set(msg, "content.0.tool_use_id", message.Get("tool_call_id").String())
			if content.Type == gjson.String {
				msg, _ = sjson.Set(msg, "content.0.content", content.String())
			} else {
				msg, _ = sjson.Set(msg, "content.0.content", content.Raw)
			}
			out, _ = sjson.SetRaw(out, "messages.-1", msg)
		}
		return true
	})

	if tools := root.Get("tools"); tools.IsArray() {
		tools.ForEach(func(_, tool gjson.Result) bool {
			if tool.Get("type").String() != "function" {
				return true
			}
			fn := tool.Get("function")
			declared := `{"name":"","description":"","input_schema":{"type":"object","properties":{}}}`
			declared, _ = sjson.Set(declared, "name", fn.Get("name").String())
			declared, _ = sjson.Set(declared, "description", fn.Get("description").String())
			if params := fn.Get("parameters"); params.IsObject() {
				declared, _ = sjson.SetRaw(declared, "input_schema", params.Raw)
			}
			out, _ = sjson.SetRaw(out, "tools.-1", declared)
			return true
		})
	}

	if choice := root.Get("tool_choice"); choice.Exists() {
		switch {
		case choice.Type == gjson.String && choice.String() == "auto":
			out, _ = sjson.SetRaw(out, "tool_choice", `{"type":"auto"}`)
		case choice.Type == gjson.String && choice.String() == "required":
			out, _ = sjson.SetRaw(out, "tool_choice", `{"type":"any"}`)
		case choice.Type == gjson.String && choice.String() == "none":
			out, _ = sjson.SetRaw(out, "tool_choice", `{"type":"none"}`)
		case choice.IsObject() && choice.Get("type").String() == "function":
			named := `{"type":"tool","name":""}`
			named, _ = sjson.Set(named, "name", choice.Get("function.name").String())
			out, _ = sjson.SetRaw(out, "tool_choice", named)
		}
	}
	if user := root.Get("user"); user.Exists() {
		out, _ = sjson.Set(out, "metadata.user_id", user.String())
	}
	return []byte(out)
}

func convertOpenAIContentPart(part gjson.Result) (string, bool) {
	switch part.Get("type").String() {
	case "text":
		text := part.Get("text").String()
		if text == "" {
			return "", false
		}
		out := `{"type":"text","text":""}`
		out, _ = sjson.Set(out, "text", text)
		return out, true
	case "image_url":
		url := part.Get("image_url.url").String()
		if strings.HasPrefix(url, "data:") {
			header, data, found := strings.Cut(strings.TrimPrefix(url, "data:"), ",")
			if !found {
				return "", false
			}
			out := `{"type":"image","source":{"type":"base64","media_type":"","data":""}}`
			out, _ = sjson.Set(out, "source.media_type", strings.Split(header, ";")[0])
			out, _ = sjson.Set(out, "source.data", data)
			return out, true
		}
		if url != "" {
			out := `{"type":"image","source":{"type":"url","url":""}}`
			out, _ = sjson.Set(out, "source.url", url)
			return out, true
		}
	}
	return "", false
}

// effortBudget maps an OpenAI reasoning effort onto an Anthropic thinking budget.
func effortBudget(effort string) (int, bool) {
	switch effort {
	case "none":
		return 0, true
	case "minimal", "low":
		return 1024, true
	case "medium":
		return 8192, true
	case "high":
		return 24576, true
	case "xhigh":
		return 32000, true
	default:
		return 0, false
	}
}

// genToolCallID creates a tool call id in the form toolu_<alphanum>.
func genToolCallID() string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	var b strings.Builder
	for i := 0; i < 24; i++ {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		b.WriteByte(letters[n.Int64()])
	}
	return "toolu_" + b.String()
}
