package version

import "runtime"

// Build information. Populated at build-time via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns version information for the build-info metric
func Info() map[string]string {
	return map[string]string{
		"version":    Version,
		"git_commit": GitCommit,
		"build_date": BuildDate,
		"go_version": runtime.Version(),
	}
}

// UserAgent returns the product token sent on outbound ARM requests
func UserAgent() string {
	return "azure-throttling-exporter/" + Version
}
