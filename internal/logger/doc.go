// Package logger builds the application's zap logger from the log section
// of the configuration.
//
// Diagnostics always go to stderr; stdout belongs to the instruction text
// and the launched server's own output.
package logger
