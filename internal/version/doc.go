// Package version exposes the mlcube-deploy build metadata.
//
// Version, Commit, and BuildTime are injected via ldflags on release builds
// and default to local-build values otherwise. Short is the form the packager
// records in deploy manifests; Full is the form the `version` subcommand prints.
package version
