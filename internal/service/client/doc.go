// Package client implements the CLI operations of alarm-manager.
//
// Every operation dials the daemon over gRPC, performs one call and prints a
// human readable result. Alarms are referred to by identifier or by name.
package client
