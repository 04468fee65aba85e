// Package config defines the settings of the alarm manager and provides
// helpers to load, validate and save them in YAML format.
//
// Load falls back to defaults when the file is missing and then applies an
// optional .env file and ALARM_MANAGER_* environment variables on top.
package config
