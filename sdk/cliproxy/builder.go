package cliproxy

import (
	"fmt"

	"github.com/streambridge/streambridge/internal/metrics"
	"github.com/streambridge/streambridge/internal/runtime/executor"
	"github.com/streambridge/streambridge/sdk/config"
	sdktranslator "github.com/streambridge/streambridge/sdk/translator"
	"github.com/streambridge/streambridge/sdk/translator/builtin"
)

// Builder constructs a Service instance with customizable collaborators.
type Builder struct {
	cfg            *config.Config
	configPath     string
	watcherFactory WatcherFactory
	hooks          Hooks
	classifier     Classifier
	translators    *sdktranslator.Registry
}

// NewBuilder creates a Builder with default dependencies left unset.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithConfig sets the configuration instance used by the service.
func (b *Builder) WithConfig(cfg *config.Config) *Builder {
	b.cfg = cfg
	return b
}

// WithConfigPath sets the configuration file path used for reload watching.
// An empty path disables watching.
func (b *Builder) WithConfigPath(path string) *Builder {
	b.configPath = path
	return b
}

// WithWatcherFactory allows customizing the watcher factory that handles reloads.
func (b *Builder) WithWatcherFactory(factory WatcherFactory) *Builder {
	b.watcherFactory = factory
	return b
}

// WithHooks registers lifecycle hooks executed around service startup.
func (b *Builder) WithHooks(h Hooks) *Builder {
	b.hooks = h
	return b
}

// WithClassifier replaces the default bypass classifier. It survives reloads.
func (b *Builder) WithClassifier(c Classifier) *Builder {
	b.classifier = c
	return b
}

// WithTranslators overrides the translator registry. The default is the built-in one.
func (b *Builder) WithTranslators(r *sdktranslator.Registry) *Builder {
	b.translators = r
	return b
}

// Build validates inputs, applies defaults, and returns a ready-to-run service.
func (b *Builder) Build() (*Service, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("cliproxy: configuration is required")
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cliproxy: %w", err)
	}

	watcherFactory := b.watcherFactory
	if watcherFactory == nil {
		watcherFactory = defaultWatcherFactory
	}
	translators := b.translators
	if translators == nil {
		translators = builtin.Registry()
	}
	translators.SetStrict(b.cfg.StrictTranslation)
	metrics.ObserveDrops(translators)

	classifier := b.classifier
	if classifier == nil {
		classifier = NewDefaultClassifier(b.cfg.Bypass)
	}

	service := &Service{
		cfg:            b.cfg,
		configPath:     b.configPath,
		executors:      executor.NewRegistry(b.cfg),
		credentials:    NewCredentialStore(b.cfg),
		translators:    translators,
		classifier:     classifier,
		customClass:    b.classifier != nil,
		httpClient:     executor.NewHTTPClient(b.cfg, 0),
		watcherFactory: watcherFactory,
		hooks:          b.hooks,
	}
	return service, nil
}
