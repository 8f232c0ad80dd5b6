package cliproxy

import (
	"github.com/streambridge/streambridge/internal/watcher"
	"github.com/streambridge/streambridge/sdk/config"
)

func defaultWatcherFactory(configPath string, reload func(*config.Config)) (*WatcherWrapper, error) {
	w, err := watcher.NewWatcher(configPath, reload)
	if err != nil {
		return nil, err
	}
	return NewWatcherWrapper(w.Start, w.Stop, w.SetConfig), nil
}
