// Package ical exports alarms as an iCalendar feed so calendar applications
// can show upcoming fires, and previews upcoming occurrences of a rule.
//
// Times are written as floating local times: alarms follow the local wall
// clock rather than a fixed time zone.
package ical
