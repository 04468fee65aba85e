// Package dto defines the wire representation of alarms shared by the gRPC
// and HTTP transports, and its conversion to and from the domain types.
//
// Durations travel as whole seconds, timer lengths as Go duration strings
// ("1h30m") and clock times as "HH:MM" or "HH:MM:SS".
package dto
