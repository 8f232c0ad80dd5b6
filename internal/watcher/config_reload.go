package watcher

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/streambridge/streambridge/internal/config"
)

func (w *Watcher) stopConfigReloadTimer() {
	w.configReloadMu.Lock()
	if w.configReloadTimer != nil {
		w.configReloadTimer.Stop()
		w.configReloadTimer = nil
	}
	w.configReloadMu.Unlock()
}

func (w *Watcher) scheduleConfigReload() {
	w.configReloadMu.Lock()
	defer w.configReloadMu.Unlock()
	if w.configReloadTimer != nil {
		w.configReloadTimer.Stop()
	}
	w.configReloadTimer = time.AfterFunc(configReloadDebounce, func() {
		w.configReloadMu.Lock()
		w.configReloadTimer = nil
		w.configReloadMu.Unlock()
		w.reloadConfigIfChanged()
	})
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (w *Watcher) reloadConfigIfChanged() {
	data, err := os.ReadFile(w.configPath)
	if err != nil {
		log.WithError(err).Error("config reload: read failed")
		return
	}
	if len(data) == 0 {
		// Editors truncate before writing; the follow-up write event carries the content.
		return
	}
	digest := hashBytes(data)

	w.mu.RLock()
	unchanged := w.lastConfigHash != "" && w.lastConfigHash == digest
	w.mu.RUnlock()
	if unchanged {
		return
	}

	next, err := config.LoadConfig(w.configPath)
	if err == nil {
		err = next.Validate()
	}
	if err != nil {
		// Keep serving with the previous configuration.
		log.WithError(err).Errorf("config reload rejected: %s", w.configPath)
		return
	}

	w.mu.Lock()
	prev := w.config
	w.config = next
	w.lastConfigHash = digest
	w.mu.Unlock()

	added, removed := providerDiff(prev, next)
	log.WithFields(log.Fields{
		"providers": len(next.Providers),
		"added":     strings.Join(added, ","),
		"removed":   strings.Join(removed, ","),
	}).Infof("config reloaded: %s", w.configPath)

	if w.reloadCallback != nil {
		w.reloadCallback(next)
	}
}

// providerDiff lists provider ids present only in next (added) and only in prev (removed).
func providerDiff(prev, next *config.Config) (added, removed []string) {
	var before, after map[string]config.ProviderConfig
	if prev != nil {
		before = prev.Providers
	}
	if next != nil {
		after = next.Providers
	}
	for id := range after {
		if _, ok := before[id]; !ok {
			added = append(added, id)
		}
	}
	for id := range before {
		if _, ok := after[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
