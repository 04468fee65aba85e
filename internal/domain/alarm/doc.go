// Package alarm contains the core domain types of the alarm manager.
//
// An Alarm is either a countdown Timer or a daily Clock alarm. Its Recurrence
// is an explicit tagged value (none, triggered by another timer, days of the
// week, every N units) and its optional Alert override describes how the
// firing escalates. Values are edited on detached copies (Clone) and validated
// with Validate before they are committed.
package alarm
