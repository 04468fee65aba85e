// Package daemon is the composition root of the alarm manager.
//
// Run loads the settings, opens the store, builds the alert collaborators,
// starts the scheduler and serves it over gRPC and, when configured, HTTP. A
// pid file keeps a second daemon from running against the same store.
package daemon
