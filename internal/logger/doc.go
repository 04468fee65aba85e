// Package logger wraps zap for the alarm manager.
//
// Components receive a context and log through the logger stored in it
// (FromContext, WithName, WithKV), so the scheduler, each escalation and each
// transport carry their own names and fields. Without one the global console
// logger is used; its threshold is the shared level set from the settings.
package logger
