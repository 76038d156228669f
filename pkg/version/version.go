// Package version exposes build-time version information for commutemcp.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Build information, overridable via -ldflags at build time.
var (
	// BuildVersion is the semantic version of this build.
	BuildVersion = "0.1.0"

	// BuildCommit is the VCS revision the binary was built from.
	BuildCommit = "unknown"

	// BuildDate is the timestamp of the build.
	BuildDate = "unknown"
)

func init() {
	// Fill in VCS details from the embedded build info when ldflags
	// were not provided.
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if BuildCommit == "unknown" {
				BuildCommit = setting.Value
			}
		case "vcs.time":
			if BuildDate == "unknown" {
				BuildDate = setting.Value
			}
		}
	}
}

// Info returns version details as a map for health and metrics endpoints.
func Info() map[string]string {
	return map[string]string{
		"version":    BuildVersion,
		"commit":     BuildCommit,
		"build_date": BuildDate,
		"go_version": runtime.Version(),
	}
}

// String returns a human-readable version line.
func String() string {
	return fmt.Sprintf("commutemcp %s (commit %s, built %s, %s)",
		BuildVersion, BuildCommit, BuildDate, runtime.Version())
}
