// Package recurrence computes alarm fire times.
//
// Next is a pure function of one alarm and a reference time: it never looks at
// other alarms and never mutates its input. Chaining timers together is the
// scheduler's job.
package recurrence
