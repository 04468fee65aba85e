// Package version holds the build metadata of alarm-manager.
//
// Version, Commit and BuildTime are set with -ldflags "-X" at release time.
// The daemon logs them on start, the CLI prints them and the gRPC client sends
// them as its user agent.
package version
