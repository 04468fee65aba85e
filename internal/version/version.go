package version

import (
	"fmt"
	"runtime"
)

// Program is the name used in the user agent and the version output.
const Program = "alarm-manager"

var (
	// Version is the semantic version of the build.
	Version = "0.1.0-dev"
	// Commit is the short git SHA of the build, "none" for local builds.
	Commit = "none"
	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns the version with commit, build time and toolchain.
func Full() string {
	return fmt.Sprintf("%s %s (commit: %s, built at: %s, %s %s/%s)",
		Program, Version, Commit, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// UserAgent identifies the client build to the daemon.
func UserAgent() string {
	return Program + "/" + Version
}
