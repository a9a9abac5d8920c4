// Package version reports build metadata for the sah binary.
//
// Version, Commit and Date are set with -ldflags at release time; when they
// are left at their defaults the values come from debug.ReadBuildInfo.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set by -ldflags "-X github.com/meigma/sah/internal/version.Version=...".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// GetVersion returns the version string, preferring the linked-in value.
func GetVersion() string {
	if Version != "dev" && Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "development"
}

// GetCommit returns the VCS revision, preferring the linked-in value.
func GetCommit() string {
	if Commit != "unknown" && Commit != "" {
		return Commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				return setting.Value
			}
		}
	}
	return "unknown"
}

// GetFullVersion returns the version with a short commit and build date.
func GetFullVersion() string {
	commit := GetCommit()
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("%s (%s, built %s)", GetVersion(), commit, Date)
}
