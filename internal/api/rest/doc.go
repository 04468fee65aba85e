// Package rest serves the alarm manager over HTTP with gin.
//
// Routes live under /api and exchange the JSON forms of the api/dto types.
// The router also exposes the prometheus collectors on /metrics and an
// iCalendar feed of the alarms on /api/calendar.ics.
package rest
