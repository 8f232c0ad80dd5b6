package cliproxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/streambridge/streambridge/internal/api"
	"github.com/streambridge/streambridge/internal/config"
)

// Run starts the HTTP server and the configuration watcher, then blocks until ctx is
// cancelled or the server fails.
func (s *Service) Run(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("cliproxy: service is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := s.config()
	if s.hooks.OnBeforeStart != nil {
		s.hooks.OnBeforeStart(cfg)
	}

	s.server = api.NewServer(cfg, s)
	serverErr := make(chan error, 1)
	go func() {
		if err := s.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	if s.configPath != "" {
		w, err := s.watcherFactory(s.configPath, s.reload)
		if err != nil {
			_ = s.Shutdown(context.Background())
			return fmt.Errorf("cliproxy: failed to create watcher: %w", err)
		}
		s.watcher = w
		s.watcher.SetConfig(cfg)
		if err = s.watcher.Start(ctx); err != nil {
			_ = s.Shutdown(context.Background())
			return fmt.Errorf("cliproxy: failed to start watcher: %w", err)
		}
	}

	log.Infof("API server started on %s", s.server.Addr())
	if s.hooks.OnAfterStart != nil {
		s.hooks.OnAfterStart(s)
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-serverErr:
		if ok {
			runErr = fmt.Errorf("cliproxy: server failed: %w", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Shutdown stops the watcher and gracefully stops the HTTP server.
func (s *Service) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	var shutdownErr error
	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			log.Errorf("failed to stop config watcher: %v", err)
			shutdownErr = err
		}
		s.watcher = nil
	}
	if s.server != nil {
		if err := s.server.Stop(ctx); err != nil {
			log.Errorf("failed to stop API server: %v", err)
			if shutdownErr == nil {
				shutdownErr = err
			}
		}
	}
	return shutdownErr
}

func (s *Service) reload(cfg *config.Config) {
	s.applyConfig(cfg)
	if s.hooks.OnReload != nil {
		s.hooks.OnReload(cfg)
	}
}
