// Package scheduler is the composition root of the alarm core. A single event
// loop owns the registry, the pending deadlines and the running escalations;
// every exposed operation is serialized through it.
package scheduler
