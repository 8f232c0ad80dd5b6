// Package util provides helpers shared across the gateway: log level management,
// outbound proxy setup, credential masking and function name sanitizing.
package util

import (
	"regexp"

	log "github.com/sirupsen/logrus"
	"github.com/streambridge/streambridge/internal/config"
)

var functionNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_.:-]`)

const maxFunctionNameLen = 64

// SanitizeFunctionName makes name acceptable as a Gemini function declaration name:
// invalid characters become underscores, the first character is a letter or underscore
// and the result is at most 64 characters.
func SanitizeFunctionName(name string) string {
	if name == "" {
		return ""
	}
	sanitized := functionNameSanitizer.ReplaceAllString(name, "_")
	if first := sanitized[0]; !isLetter(first) && first != '_' {
		if len(sanitized) >= maxFunctionNameLen {
			sanitized = sanitized[:maxFunctionNameLen-1]
		}
		sanitized = "_" + sanitized
	}
	if len(sanitized) > maxFunctionNameLen {
		sanitized = sanitized[:maxFunctionNameLen]
	}
	return sanitized
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// SetLogLevel configures the logrus log level based on the configuration.
func SetLogLevel(cfg *config.Config) {
	currentLevel := log.GetLevel()
	newLevel := log.InfoLevel
	if cfg != nil && cfg.Debug {
		newLevel = log.DebugLevel
	}
	if currentLevel != newLevel {
		log.SetLevel(newLevel)
		log.Infof("log level changed from %s to %s", currentLevel, newLevel)
	}
}
