// Package buildinfo exposes compile-time metadata shared across the server.
package buildinfo

import "fmt"

// Overridden via ldflags during release builds.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Summary renders the build metadata on one line.
func Summary() string {
	return fmt.Sprintf("StreamBridge Version: %s, Commit: %s, BuiltAt: %s", Version, Commit, BuildDate)
}
