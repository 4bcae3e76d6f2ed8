// Package meta holds build time metadata of the watchdog binary.
package meta

var (
	// Version is the semantic version, injected at build time via ldflags.
	Version = "HEAD"

	// Commit is the git commit hash, injected at build time via ldflags.
	Commit = "UNKNOWN"
)
