// Package escalation drives the alert of a single firing.
//
// An Escalation raises the notification, starts the sound and the program
// concurrently, and repeats the round every RepeatInterval until RepeatCount
// rounds have run or the alert is acknowledged. Collaborators report completion
// through callbacks; nothing here blocks on them. A failing action is logged and
// skipped.
package escalation
