// Package version holds build-time stamped version info, set via
// -ldflags "-X github.com/zapfr/engine/internal/version.Version=...".
package version

// Version and BuildTime are overridden at build time; the zero values
// below only show up in a plain `go build` during development.
var (
	Version   = "dev"
	BuildTime = "unknown"
)
