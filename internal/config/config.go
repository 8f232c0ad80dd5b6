package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/streambridge/streambridge/internal/constant"
	"gopkg.in/yaml.v3"
)

const (
	DefaultHost = ""
	DefaultPort = 8317
)

// Config is the root of the YAML configuration file.
type Config struct {
	SDKConfig `yaml:",inline"`

	// Host is the interface the HTTP server binds to. Empty binds all interfaces.
	Host string `yaml:"host" json:"host"`
	// Port is the HTTP listen port.
	Port int `yaml:"port" json:"port"`
	// Debug enables debug level logging and gin debug mode.
	Debug bool `yaml:"debug" json:"debug"`
	// LoggingToFile redirects logs to rotating files under LogDir.
	LoggingToFile bool `yaml:"logging-to-file" json:"logging-to-file"`
	// LogDir is the directory used when LoggingToFile is set. Defaults to ./logs.
	LogDir string `yaml:"log-dir" json:"log-dir"`
	// LogRotation bounds the size and age of the log files.
	LogRotation LogRotationConfig `yaml:"log-rotation" json:"log-rotation"`

	// StrictTranslation makes malformed upstream deltas abort the stream instead of being skipped.
	StrictTranslation bool `yaml:"strict-translation" json:"strict-translation"`

	// Routing decides which provider serves a model.
	Routing RoutingConfig `yaml:"routing" json:"routing"`

	// Providers holds per-provider executor settings keyed by provider identifier.
	Providers map[string]ProviderConfig `yaml:"providers" json:"providers"`

	// Bypass configures the short-circuit classifier for trivial requests.
	Bypass BypassConfig `yaml:"bypass" json:"bypass"`
}

// LogRotationConfig is passed through to the rotating file writer.
type LogRotationConfig struct {
	MaxSizeMB  int  `yaml:"max-size-mb" json:"max-size-mb"`
	MaxBackups int  `yaml:"max-backups" json:"max-backups"`
	MaxAgeDays int  `yaml:"max-age-days" json:"max-age-days"`
	Compress   bool `yaml:"compress" json:"compress"`
}

// RoutingConfig maps requested models to provider identifiers.
type RoutingConfig struct {
	// DefaultProvider serves models no prefix matches.
	DefaultProvider string `yaml:"default-provider" json:"default-provider"`
	// Models maps a model name prefix to a provider identifier. The longest prefix wins.
	Models map[string]string `yaml:"models" json:"models"`
}

// ProviderConfig is the static configuration of one executor.
type ProviderConfig struct {
	// Type selects the executor variant for custom identifiers (openai, claude, gemini,
	// gemini-cli, antigravity). Defaults to the identifier itself, then to openai.
	Type string `yaml:"type" json:"type"`
	// BaseURLs is the failover pool, tried in order.
	BaseURLs []string `yaml:"base-urls" json:"base-urls"`
	// Headers are added to every outbound request.
	Headers map[string]string `yaml:"headers" json:"headers"`
	// UserAgent overrides the default User-Agent of the variant.
	UserAgent string `yaml:"user-agent" json:"user-agent"`

	// TokenURL, ClientID and ClientSecret configure OAuth refresh.
	TokenURL     string `yaml:"token-url" json:"token-url"`
	ClientID     string `yaml:"client-id" json:"client-id"`
	ClientSecret string `yaml:"client-secret" json:"client-secret"`

	// Credentials seeds the credential store for this provider.
	Credentials CredentialConfig `yaml:"credentials" json:"credentials"`
}

// CredentialConfig is the initial credential set of a provider.
type CredentialConfig struct {
	APIKey       string `yaml:"api-key" json:"api-key"`
	AccessToken  string `yaml:"access-token" json:"access-token"`
	RefreshToken string `yaml:"refresh-token" json:"refresh-token"`
	ProjectID    string `yaml:"project-id" json:"project-id"`
}

// BypassConfig configures the trivial request classifier.
type BypassConfig struct {
	// Disabled turns the classifier off.
	Disabled bool `yaml:"disabled" json:"disabled"`
	// Phrases are extra user messages, compared case-insensitively, answered without a backend call.
	Phrases []string `yaml:"phrases" json:"phrases"`
	// Reply is the canned assistant text. Defaults to "OK".
	Reply string `yaml:"reply" json:"reply"`
}

// LoadConfig reads and validates the YAML configuration at path. A missing file yields
// the defaults so the server can start with environment-only settings.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	cfg.applyDefaults()
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.LogDir == "" {
		c.LogDir = "logs"
	}
	if c.LogRotation.MaxSizeMB <= 0 {
		c.LogRotation.MaxSizeMB = 10
	}
	if c.LogRotation.MaxBackups <= 0 {
		c.LogRotation.MaxBackups = 5
	}
	if c.LogRotation.MaxAgeDays <= 0 {
		c.LogRotation.MaxAgeDays = 14
	}
	if c.Routing.DefaultProvider == "" {
		c.Routing.DefaultProvider = constant.OpenAI
	}
	if c.Bypass.Reply == "" {
		c.Bypass.Reply = "OK"
	}
}

// Validate reports configuration errors that would otherwise surface mid-request.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	for id, p := range c.Providers {
		switch p.VariantType(id) {
		case constant.OpenAI, constant.Claude, constant.Gemini, constant.GeminiCLI, constant.Antigravity:
		default:
			return fmt.Errorf("config: provider %q has unknown type %q", id, p.Type)
		}
	}
	return nil
}

// VariantType returns the executor variant for a provider identifier.
func (p ProviderConfig) VariantType(id string) string {
	if t := strings.TrimSpace(strings.ToLower(p.Type)); t != "" {
		return t
	}
	switch id {
	case constant.Claude, constant.Gemini, constant.GeminiCLI, constant.Antigravity:
		return id
	}
	return constant.OpenAI
}

// Provider returns the configuration of a provider, or the zero value when absent.
func (c *Config) Provider(id string) ProviderConfig {
	if c == nil || c.Providers == nil {
		return ProviderConfig{}
	}
	return c.Providers[id]
}

// ProviderForModel resolves the provider serving model by longest prefix match.
func (c *Config) ProviderForModel(model string) string {
	best, bestLen := c.Routing.DefaultProvider, -1
	prefixes := make([]string, 0, len(c.Routing.Models))
	for prefix := range c.Routing.Models {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	for _, prefix := range prefixes {
		if strings.HasPrefix(model, prefix) && len(prefix) > bestLen {
			best, bestLen = c.Routing.Models[prefix], len(prefix)
		}
	}
	return best
}
