package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Fatalf("port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.Routing.DefaultProvider != "openai" {
		t.Fatalf("default provider = %q", cfg.Routing.DefaultProvider)
	}
	if cfg.LogRotation.MaxSizeMB != 10 || cfg.LogRotation.MaxBackups != 5 || cfg.LogRotation.MaxAgeDays != 14 {
		t.Fatalf("log rotation defaults = %+v", cfg.LogRotation)
	}
	if cfg.Bypass.Reply != "OK" || cfg.LogDir != "logs" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfigParsesProviders(t *testing.T) {
	path := writeConfig(t, `
port: 9000
api-keys: ["k1"]
proxy-url: socks5://127.0.0.1:1080
strict-translation: true
streaming:
  keepalive-seconds: 15
routing:
  default-provider: claude
  models:
    gemini-: gemini
    gemini-2.5-pro: antigravity
providers:
  claude:
    credentials:
      api-key: sk-ant
  antigravity:
    base-urls: ["https://a.example", "https://b.example"]
    client-id: cid
    credentials:
      refresh-token: rt
      project-id: proj
  local:
    base-urls: ["http://localhost:8000/v1"]
    headers:
      X-Team: infra
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != 9000 || len(cfg.APIKeys) != 1 || cfg.ProxyURL == "" || !cfg.StrictTranslation {
		t.Fatalf("top level fields not parsed: %+v", cfg)
	}
	if cfg.Streaming.KeepAliveSeconds != 15 {
		t.Fatalf("keepalive = %d", cfg.Streaming.KeepAliveSeconds)
	}
	ag := cfg.Provider("antigravity")
	if len(ag.BaseURLs) != 2 || ag.ClientID != "cid" || ag.Credentials.RefreshToken != "rt" || ag.Credentials.ProjectID != "proj" {
		t.Fatalf("antigravity provider = %+v", ag)
	}
	if cfg.Provider("local").Headers["X-Team"] != "infra" {
		t.Fatalf("headers not parsed")
	}
	if cfg.Provider("missing").BaseURLs != nil {
		t.Fatalf("missing provider should be zero value")
	}
}

func TestProviderForModel(t *testing.T) {
	cfg := &Config{Routing: RoutingConfig{
		DefaultProvider: "openai",
		Models:          map[string]string{"gemini-": "gemini", "gemini-2.5-pro": "antigravity", "claude": "claude"},
	}}
	cases := map[string]string{
		"gemini-2.5-flash":   "gemini",
		"gemini-2.5-pro-exp": "antigravity",
		"claude-sonnet-4":    "claude",
		"gpt-4o":             "openai",
		"":                   "openai",
	}
	for model, want := range cases {
		if got := cfg.ProviderForModel(model); got != want {
			t.Errorf("ProviderForModel(%q) = %q, want %q", model, got, want)
		}
	}
}

func TestVariantTypeAndValidate(t *testing.T) {
	cases := []struct {
		id   string
		p    ProviderConfig
		want string
	}{
		{"claude", ProviderConfig{}, "claude"},
		{"gemini-cli", ProviderConfig{}, "gemini-cli"},
		{"my-proxy", ProviderConfig{}, "openai"},
		{"work-claude", ProviderConfig{Type: "Claude"}, "claude"},
	}
	for _, tc := range cases {
		if got := tc.p.VariantType(tc.id); got != tc.want {
			t.Errorf("VariantType(%q) = %q, want %q", tc.id, got, tc.want)
		}
	}

	bad := &Config{Port: DefaultPort, Providers: map[string]ProviderConfig{"x": {Type: "bedrock"}}}
	if err := bad.Validate(); err == nil {
		t.Fatalf("unknown provider type should fail validation")
	}
	if err := (&Config{Port: 70000}).Validate(); err == nil {
		t.Fatalf("out of range port should fail validation")
	}
	path := writeConfig(t, "port: [")
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("malformed yaml should fail")
	}
}
