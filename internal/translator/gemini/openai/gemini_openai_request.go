package openai

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/streambridge/streambridge/internal/translator/gemini/common"
	"github.com/streambridge/streambridge/internal/util"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const geminiFunctionThoughtSignature = "skip_thought_signature_validator"

// ConvertOpenAIRequestToGemini converts an OpenAI Chat Completions request into a Gemini
// generateContent request. System and developer messages become systemInstruction; tool
// responses are grouped into a single user turn after the model turn that called them.
func ConvertOpenAIRequestToGemini(modelName string, inputRawJSON []byte, _ bool) []byte {
	rawJSON := inputRawJSON
	out := []byte(`{"contents":[]}`)
	out, _ = sjson.SetBytes(out, "model", modelName)

	if effort := strings.ToLower(strings.TrimSpace(gjson.GetBytes(rawJSON, "reasoning_effort").String())); effort != "" {
		switch effort {
		case "auto":
			out, _ = sjson.SetBytes(out, "generationConfig.thinkingConfig.thinkingBudget", -1)
			out, _ = sjson.SetBytes(out, "generationConfig.thinkingConfig.includeThoughts", true)
		case "none":
			out, _ = sjson.SetBytes(out, "generationConfig.thinkingConfig.thinkingBudget", 0)
		default:
			out, _ = sjson.SetBytes(out, "generationConfig.thinkingConfig.thinkingLevel", effort)
			out, _ = sjson.SetBytes(out, "generationConfig.thinkingConfig.includeThoughts", true)
		}
	}
	if tr := gjson.GetBytes(rawJSON, "temperature"); tr.Type == gjson.Number {
		out, _ = sjson.SetBytes(out, "generationConfig.temperature", tr.Num)
	}
	if tp := gjson.GetBytes(rawJSON, "top_p"); tp.Type == gjson.Number {
		out, _ = sjson.SetBytes(out, "generationConfig.topP", tp.Num)
	}
	if tk := gjson.GetBytes(rawJSON, "top_k"); tk.Type == gjson.Number {
		out, _ = sjson.SetBytes(out, "generationConfig.topK", tk.Num)
	}
	if mt := gjson.GetBytes(rawJSON, "max_tokens"); mt.Type == gjson.Number {
		out, _ = sjson.SetBytes(out, "generationConfig.maxOutputTokens", mt.Int())
	}
	if n := gjson.GetBytes(rawJSON, "n"); n.Type == gjson.Number && n.Int() > 1 {
		out, _ = sjson.SetBytes(out, "generationConfig.candidateCount", n.Int())
	}
	if stop := gjson.GetBytes(rawJSON, "stop"); stop.Exists() {
		if stop.IsArray() {
			var list []string
			stop.ForEach(func(_, v gjson.Result) bool {
				list = append(list, v.String())
				return true
			})
			out, _ = sjson.SetBytes(out, "generationConfig.stopSequences", list)
		} else if stop.String() != "" {
			out, _ = sjson.SetBytes(out, "generationConfig.stopSequences", []string{stop.String()})
		}
	}

	messages := gjson.GetBytes(rawJSON, "messages").Array()
	toolNames := map[string]string{}
	toolResponses := map[string]string{}
	for _, m := range messages {
		switch m.Get("role").String() {
		case "assistant":
			for _, tc := range m.Get("tool_calls").Array() {
				if id, name := tc.Get("id").String(), tc.Get("function.name").String(); id != "" && name != "" {
					toolNames[id] = name
				}
			}
		case "tool":
			if id := m.Get("tool_call_id").String(); id != "" {
				toolResponses[id] = m.Get("content").Raw
			}
		}
	}

	systemPart := 0
	for _, m := range messages {
		role := m.Get("role").String()
		content := m.Get("content")
		switch {
		case (role == "system" || role == "developer") && len(messages) > 1:
			for _, text := range textsOf(content) {
				out, _ = sjson.SetBytes(out, "systemInstruction.role", "user")
				out, _ = sjson.SetBytes(out, fmt.Sprintf("systemInstruction.parts.%d.text", systemPart), text)
				systemPart++
			}

		case role == "user" || role == "system" || role == "developer":
			node := []byte(`{"role":"user","parts":[]}`)
			node = appendContentParts(node, content)
			out, _ = sjson.SetRawBytes(out, "contents.-1", node)

		case role == "assistant":
			node := []byte(`{"role":"model","parts":[]}`)
			node = appendContentParts(node, content)
			var callIDs []string
			for _, tc := range m.Get("tool_calls").Array() {
				if tc.Get("type").String() != "function" {
					continue
				}
				part := []byte(`{"functionCall":{"name":"","args":{}}}`)
				part, _ = sjson.SetBytes(part, "functionCall.name", util.SanitizeFunctionName(tc.Get("function.name").String()))
				if args := tc.Get("function.arguments").String(); gjson.Valid(args) && gjson.Parse(args).IsObject() {
					part, _ = sjson.SetRawBytes(part, "functionCall.args", []byte(args))
				}
				part, _ = sjson.SetBytes(part, "thoughtSignature", geminiFunctionThoughtSignature)
				node, _ = sjson.SetRawBytes(node, "parts.-1", part)
				if id := tc.Get("id").String(); id != "" {
					callIDs = append(callIDs, id)
				}
			}
			out, _ = sjson.SetRawBytes(out, "contents.-1", node)

			responses := []byte(`{"role":"user","parts":[]}`)
			count := 0
			for _, id := range callIDs {
				name, ok := toolNames[id]
				if !ok {
					continue
				}
				resp := toolResponses[id]
				if resp == "" {
					resp = "{}"
				}
				part := []byte(`{"functionResponse":{"name":"","response":{}}}`)
				part, _ = sjson.SetBytes(part, "functionResponse.name", util.SanitizeFunctionName(name))
				part, _ = sjson.SetRawBytes(part, "functionResponse.response.result", []byte(resp))
				responses, _ = sjson.SetRawBytes(responses, "parts.-1", part)
				count++
			}
			if count > 0 {
				out, _ = sjson.SetRawBytes(out, "contents.-1", responses)
			}
		}
	}

	if tools := gjson.GetBytes(rawJSON, "tools"); tools.IsArray() {
		declarations := []byte(`[]`)
		for _, t := range tools.Array() {
			if t.Get("type").String() != "function" {
				continue
			}
			fn := t.Get("function")
			decl := []byte(`{"name":"","description":"","parametersJsonSchema":{"type":"object","properties":{}}}`)
			decl, _ = sjson.SetBytes(decl, "name", util.SanitizeFunctionName(fn.Get("name").String()))
			decl, _ = sjson.SetBytes(decl, "description", fn.Get("description").String())
			if params := fn.Get("parameters"); params.IsObject() {
				var err error
				if decl, err = sjson.SetRawBytes(decl, "parametersJsonSchema", []byte(params.Raw)); err != nil {
					log.Warnf("gemini request: failed to set schema for tool %q: %v", fn.Get("name").String(), err)
					continue
				}
			}
			declarations, _ = sjson.SetRawBytes(declarations, "-1", decl)
		}
		if len(gjson.ParseBytes(declarations).Array()) > 0 {
			out, _ = sjson.SetRawBytes(out, "tools.0.functionDeclarations", declarations)
		}
	}

	if choice := gjson.GetBytes(rawJSON, "tool_choice"); choice.Exists() {
		switch {
		case choice.String() == "none":
			out, _ = sjson.SetBytes(out, "toolConfig.functionCallingConfig.mode", "NONE")
		case choice.String() == "required":
			out, _ = sjson.SetBytes(out, "toolConfig.functionCallingConfig.mode", "ANY")
		case choice.IsObject():
			out, _ = sjson.SetBytes(out, "toolConfig.functionCallingConfig.mode", "ANY")
			out, _ = sjson.SetBytes(out, "toolConfig.functionCallingConfig.allowedFunctionNames", []string{util.SanitizeFunctionName(choice.Get("function.name").String())})
		}
	}

	return common.AttachDefaultSafetySettings(out, "safetySettings")
}

func textsOf(content gjson.Result) []string {
	if content.Type == gjson.String {
		return []string{content.String()}
	}
	if content.IsObject() && content.Get("type").String() == "text" {
		return []string{content.Get("text").String()}
	}
	var texts []string
	content.ForEach(func(_, item gjson.Result) bool {
		if item.Get("type").String() == "text" {
			texts = append(texts, item.Get("text").String())
		}
		return true
	})
	return texts
}

// appendContentParts converts OpenAI message content into Gemini parts on node.
func appendContentParts(node []byte, content gjson.Result) []byte {
	if content.Type == gjson.String {
		if content.String() != "" {
			node, _ = sjson.SetBytes(node, "parts.-1.text", content.String())
		}
		return node
	}
	content.ForEach(func(_, item gjson.Result) bool {
		switch item.Get("type").String() {
		case "text":
			if text := item.Get("text").String(); text != "" {
				part := []byte(`{"text":""}`)
				part, _ = sjson.SetBytes(part, "text", text)
				node, _ = sjson.SetRawBytes(node, "parts.-1", part)
			}
		case "image_url":
			url := item.Get("image_url.url").String()
			header, data, found := strings.Cut(strings.TrimPrefix(url, "data:"), ",")
			if !strings.HasPrefix(url, "data:") || !found {
				log.Debugf("gemini request: skipping non-inline image %q", url)
				return true
			}
			part := []byte(`{"inlineData":{"mimeType":"","data":""}}`)
			part, _ = sjson.SetBytes(part, "inlineData.mimeType", strings.Split(header, ";")[0])
			part, _ = sjson.SetBytes(part, "inlineData.data", data)
			node, _ = sjson.SetRawBytes(node, "parts.-1", part)
		}
		return true
	})
	return node
}
