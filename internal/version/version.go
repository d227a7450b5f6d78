package version

import "runtime/debug"

// Version information for usersoap
const (
	// Version is the current semantic version of usersoap
	Version = "0.3.0"

	// BuildDate is set during build time (use -ldflags)
	BuildDate = "development"

	// GitCommit is set during build time (use -ldflags)
	GitCommit = "unknown"
)

// Info returns version information as a string
func Info() string {
	return Version
}

// FullInfo returns detailed version information
func FullInfo() string {
	return "usersoap " + Version + " (commit: " + vcsRevision() + ", built: " + BuildDate + ")"
}

// vcsRevision prefers the revision stamped by the go tool over the ldflags default
func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return GitCommit
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return GitCommit
}
