// Package common is the typed gRPC client of the alarm manager daemon, shared
// by the CLI commands and the integration tests. Every call carries the origin
// of the caller (user@host) in the request metadata.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
