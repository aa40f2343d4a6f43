// Package logger provides the structured logging interface used by the dated
// reader and its CLI.
//
// It wraps zerolog behind a small Logger interface with support for:
//   - Log levels (debug, info, warn, error, disabled)
//   - Structured fields via WithField / WithFields / *WithFields
//   - Human readable console output on stderr, optional JSON file output
//   - A global logger for commands, plus NewNopLogger and NewTestLogger
//
// Basic usage:
//
//	err := logger.Initialize(&config.LoggingConfig{Level: "debug"})
//
//	log := logger.GetLogger().WithField("component", "reader")
//	log.InfoWithFields("Session opened", map[string]interface{}{
//		"entries": 3,
//	})
//
// Stdout is never written to; commands that stream lines own it.
package logger
