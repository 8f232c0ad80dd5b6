package util

import (
	"net/url"
	"strings"
)

// HideAPIKey obscures a secret for logging, keeping only a few leading and trailing characters.
func HideAPIKey(apiKey string) string {
	switch n := len(apiKey); {
	case n > 8:
		return apiKey[:4] + "..." + apiKey[n-4:]
	case n > 4:
		return apiKey[:2] + "..." + apiKey[n-2:]
	case n > 2:
		return apiKey[:1] + "..." + apiKey[n-1:]
	}
	return apiKey
}

// MaskAuthorizationHeader masks the credential of an Authorization value, keeping the scheme.
func MaskAuthorizationHeader(value string) string {
	scheme, credential, found := strings.Cut(strings.TrimSpace(value), " ")
	if !found {
		return HideAPIKey(value)
	}
	return scheme + " " + HideAPIKey(credential)
}

// MaskSensitiveQuery masks key, token and secret parameters within a raw query string.
func MaskSensitiveQuery(raw string) string {
	if raw == "" {
		return ""
	}
	parts := strings.Split(raw, "&")
	changed := false
	for i, part := range parts {
		keyPart, valuePart, _ := strings.Cut(part, "=")
		key, err := url.QueryUnescape(keyPart)
		if err != nil {
			key = keyPart
		}
		if !sensitiveParam(key) {
			continue
		}
		value, err := url.QueryUnescape(valuePart)
		if err != nil {
			value = valuePart
		}
		parts[i] = keyPart + "=" + url.QueryEscape(HideAPIKey(strings.TrimSpace(value)))
		changed = true
	}
	if !changed {
		return raw
	}
	return strings.Join(parts, "&")
}

func sensitiveParam(key string) bool {
	key = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(key)), "[]")
	if key == "" {
		return false
	}
	if key == "key" {
		return true
	}
	for _, marker := range []string{"api-key", "apikey", "api_key", "token", "secret"} {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}
