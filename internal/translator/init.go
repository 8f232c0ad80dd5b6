// Package translator registers every built-in converter and aggregator with the default
// registry of sdk/translator.
package translator

import (
	_ "github.com/streambridge/streambridge/internal/translator/aggregate"

	_ "github.com/streambridge/streambridge/internal/translator/antigravity/openai"
	_ "github.com/streambridge/streambridge/internal/translator/claude/claude"
	_ "github.com/streambridge/streambridge/internal/translator/claude/openai"
	_ "github.com/streambridge/streambridge/internal/translator/gemini-cli/openai"
	_ "github.com/streambridge/streambridge/internal/translator/gemini/gemini"
	_ "github.com/streambridge/streambridge/internal/translator/gemini/openai"
	_ "github.com/streambridge/streambridge/internal/translator/openai/claude"
	_ "github.com/streambridge/streambridge/internal/translator/openai/gemini"
	_ "github.com/streambridge/streambridge/internal/translator/openai/gemini-cli"
	_ "github.com/streambridge/streambridge/internal/translator/openai/openai"
)
