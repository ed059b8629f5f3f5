package version

import (
	"runtime"
	"runtime/debug"
)

// Set at build time with -ldflags "-X .../internal/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var readBuildInfo = debug.ReadBuildInfo

func String() string {
	commit, date := buildMetadata()
	return "ragvoice " + Version + " (commit=" + commit + ", date=" + date + ", go=" + runtime.Version() + ")"
}

// UserAgent identifies outbound HTTP requests.
func UserAgent() string {
	return "ragvoice/" + Version
}

// buildMetadata prefers ldflags values and falls back to the VCS stamp
// recorded by the go toolchain.
func buildMetadata() (commit string, date string) {
	commit, date = Commit, Date
	if commit != "none" && date != "unknown" {
		return commit, date
	}
	info, ok := readBuildInfo()
	if !ok {
		return commit, date
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if commit == "none" && setting.Value != "" {
				commit = setting.Value
			}
		case "vcs.time":
			if date == "unknown" && setting.Value != "" {
				date = setting.Value
			}
		}
	}
	return commit, date
}
