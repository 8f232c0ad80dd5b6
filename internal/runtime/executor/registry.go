package executor

import (
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/streambridge/streambridge/internal/config"
	"github.com/streambridge/streambridge/internal/constant"
	cliproxyexecutor "github.com/streambridge/streambridge/sdk/cliproxy/executor"
)

type factory func(cfg *config.Config, id string) cliproxyexecutor.ProviderExecutor

var variants = map[string]factory{
	constant.OpenAI: func(cfg *config.Config, id string) cliproxyexecutor.ProviderExecutor {
		return NewOpenAIExecutor(cfg, id)
	},
	constant.Claude: func(cfg *config.Config, id string) cliproxyexecutor.ProviderExecutor {
		return NewClaudeExecutor(cfg, id)
	},
	constant.Gemini: func(cfg *config.Config, id string) cliproxyexecutor.ProviderExecutor {
		return NewGeminiExecutor(cfg, id)
	},
	constant.GeminiCLI: func(cfg *config.Config, id string) cliproxyexecutor.ProviderExecutor {
		return NewGeminiCLIExecutor(cfg, id)
	},
	constant.Antigravity: func(cfg *config.Config, id string) cliproxyexecutor.ProviderExecutor {
		return NewAntigravityExecutor(cfg, id)
	},
}

// Registry resolves provider identifiers to executors. Named variants are selected by
// the provider's configured type; any other identifier gets the OpenAI-compatible
// default. Executors are built once per identifier and cached.
type Registry struct {
	mu    sync.RWMutex
	cfg   *config.Config
	cache map[string]cliproxyexecutor.ProviderExecutor
}

// NewRegistry returns a registry bound to cfg.
func NewRegistry(cfg *config.Config) *Registry {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &Registry{cfg: cfg, cache: make(map[string]cliproxyexecutor.ProviderExecutor)}
}

// Get returns the executor for provider id, building and caching it on first use.
func (r *Registry) Get(id string) cliproxyexecutor.ProviderExecutor {
	id = strings.TrimSpace(id)
	r.mu.RLock()
	exec, ok := r.cache[id]
	r.mu.RUnlock()
	if ok {
		return exec
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if exec, ok = r.cache[id]; ok {
		return exec
	}
	variant := r.cfg.Provider(id).VariantType(id)
	build, known := variants[variant]
	if !known {
		build = variants[constant.OpenAI]
	}
	exec = build(r.cfg, id)
	r.cache[id] = exec
	log.Debugf("executor registry: built %s executor for provider %q", variant, id)
	return exec
}

// Reload swaps the configuration and drops every cached executor.
func (r *Registry) Reload(cfg *config.Config) {
	if cfg == nil {
		return
	}
	r.mu.Lock()
	r.cfg = cfg
	r.cache = make(map[string]cliproxyexecutor.ProviderExecutor)
	r.mu.Unlock()
}

// Config returns the configuration the registry currently builds executors from.
func (r *Registry) Config() *config.Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg
}
