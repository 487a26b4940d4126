package version

import "fmt"

var (
	// Version is the tool's semantic version, overridden via ldflags on release builds.
	// It is also recorded in every deploy manifest the packager writes.
	Version = "0.1.0"
	// Commit is the short git SHA of the build (or "none" for local builds).
	Commit = "none"
	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"
)

// Short returns only the semantic version, the form stored in deploy manifests.
func Short() string {
	return Version
}

// Full renders the version with commit and build time for CLI output.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}
