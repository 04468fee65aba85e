// Package clock abstracts wall-clock reads and cancellable waits so that the
// scheduler and the escalations can be driven by fake time in tests.
package clock
