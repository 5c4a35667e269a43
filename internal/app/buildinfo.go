package app

// Build information populated via -ldflags at build time.
var (
	BuildVersion = "0.0.0-dev"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"
)

// BuildInfo returns the build metadata served by GET /version.
func BuildInfo() map[string]string {
	return map[string]string{
		"version": BuildVersion,
		"commit":  BuildCommit,
		"date":    BuildDate,
	}
}
