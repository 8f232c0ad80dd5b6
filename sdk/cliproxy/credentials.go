package cliproxy

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/streambridge/streambridge/internal/config"
	"github.com/streambridge/streambridge/internal/metrics"
	"github.com/streambridge/streambridge/internal/util"
	cliproxyexecutor "github.com/streambridge/streambridge/sdk/cliproxy/executor"
	"golang.org/x/sync/singleflight"
)

// CredentialStore holds the live credential set of every provider. Refreshes for the
// same provider and refresh token are collapsed into a single token endpoint call.
type CredentialStore struct {
	mu     sync.RWMutex
	creds  map[string]*cliproxyexecutor.Credentials
	seeded map[string]config.CredentialConfig
	group  singleflight.Group
}

// NewCredentialStore returns a store seeded from cfg.
func NewCredentialStore(cfg *config.Config) *CredentialStore {
	s := &CredentialStore{
		creds:  make(map[string]*cliproxyexecutor.Credentials),
		seeded: make(map[string]config.CredentialConfig),
	}
	s.Seed(cfg)
	return s
}

// Seed loads provider credentials from cfg. Entries whose configured values did not change
// keep their runtime state so refreshed tokens survive a config reload.
func (s *CredentialStore) Seed(cfg *config.Config) {
	if cfg == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, pc := range cfg.Providers {
		if prev, ok := s.seeded[id]; ok && prev == pc.Credentials {
			continue
		}
		s.seeded[id] = pc.Credentials
		s.creds[id] = &cliproxyexecutor.Credentials{
			APIKey:       pc.Credentials.APIKey,
			AccessToken:  pc.Credentials.AccessToken,
			RefreshToken: pc.Credentials.RefreshToken,
			ProjectID:    pc.Credentials.ProjectID,
		}
	}
	for id := range s.seeded {
		if _, ok := cfg.Providers[id]; !ok {
			delete(s.seeded, id)
			delete(s.creds, id)
		}
	}
}

// Get returns a copy of the provider's credentials, or nil when none are known.
func (s *CredentialStore) Get(provider string) *cliproxyexecutor.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds[provider].Clone()
}

// Set replaces the provider's credentials.
func (s *CredentialStore) Set(provider string, creds *cliproxyexecutor.Credentials) {
	s.mu.Lock()
	s.creds[provider] = creds.Clone()
	s.mu.Unlock()
}

// Refresh re-issues stale through exec. Concurrent calls for the same refresh token share
// one token endpoint request. The store is updated only when stale is still the stored
// credential set. A nil result means the credentials could not be refreshed.
func (s *CredentialStore) Refresh(ctx context.Context, exec cliproxyexecutor.ProviderExecutor, stale *cliproxyexecutor.Credentials, logger *log.Entry) *cliproxyexecutor.Credentials {
	provider := exec.Identifier()
	if !stale.Refreshable() {
		metrics.CredentialRefreshesTotal.WithLabelValues(provider, "skipped").Inc()
		return nil
	}
	key := provider + "\x00" + stale.RefreshToken
	v, _, _ := s.group.Do(key, func() (interface{}, error) {
		refreshed := exec.RefreshCredentials(ctx, stale, logger)
		if refreshed == nil {
			metrics.CredentialRefreshesTotal.WithLabelValues(provider, "failed").Inc()
			return (*cliproxyexecutor.Credentials)(nil), nil
		}
		metrics.CredentialRefreshesTotal.WithLabelValues(provider, "ok").Inc()
		s.mu.Lock()
		if current, ok := s.creds[provider]; ok && current.RefreshToken == stale.RefreshToken {
			s.creds[provider] = refreshed.Clone()
		}
		s.mu.Unlock()
		if logger != nil {
			logger.Debugf("credentials refreshed, access token %s", util.HideAPIKey(refreshed.AccessToken))
		}
		return refreshed, nil
	})
	refreshed, _ := v.(*cliproxyexecutor.Credentials)
	return refreshed.Clone()
}
