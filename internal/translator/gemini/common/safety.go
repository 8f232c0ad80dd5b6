// Package common holds helpers shared by the Gemini family translators.
package common

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// defaultSafetySettings disables the configurable Gemini content filters.
const defaultSafetySettings = `[` +
	`{"category":"HARM_CATEGORY_HARASSMENT","threshold":"OFF"},` +
	`{"category":"HARM_CATEGORY_HATE_SPEECH","threshold":"OFF"},` +
	`{"category":"HARM_CATEGORY_SEXUALLY_EXPLICIT","threshold":"OFF"},` +
	`{"category":"HARM_CATEGORY_DANGEROUS_CONTENT","threshold":"OFF"},` +
	`{"category":"HARM_CATEGORY_CIVIC_INTEGRITY","threshold":"BLOCK_NONE"}]`

// AttachDefaultSafetySettings sets the default safety settings at path unless the request
// already carries its own.
func AttachDefaultSafetySettings(rawJSON []byte, path string) []byte {
	if gjson.GetBytes(rawJSON, path).Exists() {
		return rawJSON
	}
	out, err := sjson.SetRawBytes(rawJSON, path, []byte(defaultSafetySettings))
	if err != nil {
		return rawJSON
	}
	return out
}

// WrapEnvelope nests a Gemini payload under the "response" key used by the Cloud Code
// protocols.
func WrapEnvelope(payload []byte) []byte {
	out, err := sjson.SetRawBytes([]byte(`{}`), "response", payload)
	if err != nil {
		return payload
	}
	return out
}

// UnwrapEnvelope returns the payload nested under "response", or the input when the payload
// is not wrapped.
func UnwrapEnvelope(rawJSON []byte) []byte {
	if inner := gjson.GetBytes(rawJSON, "response"); inner.IsObject() {
		return []byte(inner.Raw)
	}
	return rawJSON
}
