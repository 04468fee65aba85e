// Package process runs the external programs of an alert. Programs run
// detached from the alert's round, may be bounded by a runtime limit and can
// be killed by their handle.
package process
