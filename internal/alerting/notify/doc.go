// Package notify delivers alarm notices: desktop notifications through the
// platform's notification command, MQTT messages for other devices and log
// lines. Multi fans a notice out to several notifiers.
package notify
