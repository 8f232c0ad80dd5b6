package cliproxy

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/streambridge/streambridge/internal/config"
	sdktranslator "github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Classifier decides whether a canonical request can be answered without a backend call.
type Classifier interface {
	// Classify returns the assistant reply and true when the request should be bypassed.
	Classify(canonical []byte) (reply string, ok bool)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(canonical []byte) (string, bool)

func (f ClassifierFunc) Classify(canonical []byte) (string, bool) { return f(canonical) }

var defaultBypassPhrases = []string{"warmup", "ping"}

type phraseClassifier struct {
	phrases map[string]struct{}
	reply   string
}

// NewDefaultClassifier matches warmup requests: a lone user message equal to one of the
// configured phrases, or a single-message request capped at one output token.
func NewDefaultClassifier(cfg config.BypassConfig) Classifier {
	if cfg.Disabled {
		return nil
	}
	c := &phraseClassifier{phrases: make(map[string]struct{}), reply: cfg.Reply}
	if c.reply == "" {
		c.reply = "OK"
	}
	for _, p := range append(append([]string(nil), defaultBypassPhrases...), cfg.Phrases...) {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			c.phrases[p] = struct{}{}
		}
	}
	return c
}

func (c *phraseClassifier) Classify(canonical []byte) (string, bool) {
	root := gjson.ParseBytes(canonical)
	var users []gjson.Result
	for _, msg := range root.Get("messages").Array() {
		switch msg.Get("role").String() {
		case "system", "developer":
		case "user":
			users = append(users, msg)
		default:
			return "", false
		}
	}
	if len(users) != 1 || root.Get("tools.0").Exists() {
		return "", false
	}
	maxTokens := root.Get("max_completion_tokens")
	if !maxTokens.Exists() {
		maxTokens = root.Get("max_tokens")
	}
	if maxTokens.Exists() && maxTokens.Int() == 1 {
		return c.reply, true
	}
	if _, ok := c.phrases[strings.ToLower(strings.TrimSpace(messageText(users[0])))]; ok {
		return c.reply, true
	}
	return "", false
}

func messageText(msg gjson.Result) string {
	content := msg.Get("content")
	if content.Type == gjson.String {
		return content.String()
	}
	var sb strings.Builder
	for _, part := range content.Array() {
		if part.Get("type").String() == "text" {
			sb.WriteString(part.Get("text").String())
		}
	}
	return sb.String()
}

// syntheticCompletion builds the canonical chunk answered for a bypassed request.
func syntheticCompletion(model, reply string, usage sdktranslator.Usage) []byte {
	out := []byte(`{"id":"","object":"chat.completion.chunk","created":0,"model":"","choices":[{"index":0,"delta":{"role":"assistant","content":""},"finish_reason":"stop"}]}`)
	out, _ = sjson.SetBytes(out, "id", "chatcmpl-"+uuid.NewString())
	out, _ = sjson.SetBytes(out, "created", time.Now().Unix())
	out, _ = sjson.SetBytes(out, "model", model)
	out, _ = sjson.SetBytes(out, "choices.0.delta.content", reply)
	out, _ = sjson.SetRawBytes(out, "usage", []byte(usage.OpenAIJSON()))
	return out
}
