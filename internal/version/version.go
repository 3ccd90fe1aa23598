// Package version holds build metadata stamped via -ldflags.
package version

// Overridden at build time, e.g.
// go build -ldflags "-X .../internal/version.Version=v1.2.0".
var (
	Version = "dev"
	Commit  = "unknown"
)
