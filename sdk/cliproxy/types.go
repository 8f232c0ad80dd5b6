// Package cliproxy provides the gateway service: it resolves providers, keeps
// credentials fresh, runs requests through the translation pipeline and hosts the
// HTTP server with live configuration reload.
package cliproxy

import (
	"context"

	"github.com/streambridge/streambridge/sdk/config"
)

// WatcherFactory creates a watcher for configuration changes.
// The reload callback receives the updated configuration when changes are detected.
type WatcherFactory func(configPath string, reload func(*config.Config)) (*WatcherWrapper, error)

// WatcherWrapper exposes the subset of watcher methods required by the service.
type WatcherWrapper struct {
	start     func(ctx context.Context) error
	stop      func() error
	setConfig func(cfg *config.Config)
}

// NewWatcherWrapper assembles a wrapper from plain functions. Nil functions are no-ops.
func NewWatcherWrapper(start func(ctx context.Context) error, stop func() error, setConfig func(cfg *config.Config)) *WatcherWrapper {
	return &WatcherWrapper{start: start, stop: stop, setConfig: setConfig}
}

// Start proxies to the underlying watcher Start implementation.
func (w *WatcherWrapper) Start(ctx context.Context) error {
	if w == nil || w.start == nil {
		return nil
	}
	return w.start(ctx)
}

// Stop proxies to the underlying watcher Stop implementation.
func (w *WatcherWrapper) Stop() error {
	if w == nil || w.stop == nil {
		return nil
	}
	return w.stop()
}

// SetConfig updates the watcher configuration cache.
func (w *WatcherWrapper) SetConfig(cfg *config.Config) {
	if w == nil || w.setConfig == nil {
		return
	}
	w.setConfig(cfg)
}

// Hooks allows callers to plug into service lifecycle stages.
type Hooks struct {
	// OnBeforeStart is called before the server starts listening.
	OnBeforeStart func(*config.Config)

	// OnAfterStart is called once the server and watcher are running.
	OnAfterStart func(*Service)

	// OnReload is called after a reloaded configuration has been applied.
	OnReload func(*config.Config)
}
