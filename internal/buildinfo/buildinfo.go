// Package buildinfo reports what binary is running, for /health.
package buildinfo

import "time"

// Set via -ldflags "-X github.com/xelth-com/saisun/internal/buildinfo.Commit=..."
var (
	Version   = "dev"
	Commit    string
	BuildTime string
)

// StartTime is recorded when the process starts
var StartTime = time.Now().UTC().Format(time.RFC3339)

// Info returns the non-empty build attributes.
func Info() map[string]string {
	info := map[string]string{"version": Version, "started": StartTime}
	if Commit != "" {
		info["commit"] = Commit
	}
	if BuildTime != "" {
		info["built"] = BuildTime
	}
	return info
}
