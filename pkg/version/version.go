package version

import (
	"runtime"
)

// injected with -ldflags "-X elapor/pkg/version.Version=..."
var (
	Version   = "0.1.0"
	GitCommit = ""
	BuildTime = "unknown"
)

// GetVersion version string
func GetVersion() string {
	return Version
}

// GetVersionInfo build details shown on startup and by elaporctl version
func GetVersionInfo() map[string]string {
	info := map[string]string{
		"version":    Version,
		"build_time": BuildTime,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
	}
	if GitCommit != "" {
		info["git_commit"] = GitCommit
	}
	return info
}
