// Package logging provides structured logging for fwfleet.
//
// It wraps a package-level zap logger with helpers for the events the
// installer cares about: HTTP traffic to the management endpoint, run
// state transitions, loaded firmware payloads, and per-device outcomes.
//
// Logging is silent unless a level is given, either through Initialize or
// the FWFLEET_LOG_LEVEL environment variable. This keeps the curated CLI
// report on stdout readable; log lines go to stderr.
//
//	if err := logging.Initialize("debug"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
//	logging.Info("Connected", zap.String("base_url", baseURL))
//
// All functions are safe for concurrent use.
package logging
