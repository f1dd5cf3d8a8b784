package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/rangectl/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/rangectl/internal/version.Commit=abc123"
//
// Unset values are filled from the binary's build info, then from a
// timestamped "dev" fallback.
var (
	// Version is the semantic version of rangectl
	Version = ""
	// Commit is the short git hash
	Commit = ""
)

// ProtocolVersion is advertised in mDNS TXT records and bumped when the
// WebSocket message format changes incompatibly.
const ProtocolVersion = "1"

func init() {
	if Version == "" || Commit == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			Version, Commit = fromBuildInfo(Version, Commit, info)
		}
	}

	if Version == "" {
		Version = fmt.Sprintf("dev-%s", time.Now().Format("20060102-150405"))
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fromBuildInfo fills whichever of version and commit is empty. A module
// version is present for `go install ...@vX`; VCS stamps for builds inside a
// checkout.
func fromBuildInfo(version, commit string, info *debug.BuildInfo) (string, string) {
	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}

	if commit == "" {
		if rev := settings["vcs.revision"]; rev != "" {
			if len(rev) > 7 {
				rev = rev[:7]
			}
			commit = rev
			if settings["vcs.modified"] == "true" {
				commit += "-dirty"
			}
		}
	}

	if version == "" {
		switch {
		case info.Main.Version != "" && info.Main.Version != "(devel)":
			version = info.Main.Version
		case settings["vcs.time"] != "":
			if t, err := time.Parse(time.RFC3339, settings["vcs.time"]); err == nil {
				version = "dev-" + t.Format("20060102")
			}
		}
	}

	return version, commit
}

// Full returns the version with its commit, as printed by `rangectl version`.
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// UserAgent identifies rangectl in outgoing HTTP and WebSocket requests.
func UserAgent() string {
	return "rangectl/" + Version
}
