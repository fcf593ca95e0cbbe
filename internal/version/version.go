// Package version holds build metadata injected via ldflags.
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Full returns a single-line human-readable version string.
func Full() string {
	return Version + " (" + Commit + ", built " + Date + ")"
}
