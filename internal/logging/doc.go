// Package logging provides structured logging for the Fröling relay.
//
// This package wraps a global zap logger with convenience functions for the
// patterns used throughout the relay: connection events and hex dumps of the
// bytes crossing the serial link.
//
// # Log Levels
//
//   - Debug: Serial exchange hex dumps, line parsing
//   - Info: Connections, startup, shutdown
//   - Warn: Protocol violations, dropped clients
//   - Error: Startup failures, unexpected client errors
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.InitializeWithOptions(logging.Options{
//	    Level: "info",
//	    File:  "/var/log/froeling/relay.log",
//	}); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// With no level given, FROELING_LOG_LEVEL is consulted; if that is empty too
// the logger is a no-op, which keeps one-shot CLI commands quiet.
//
// # File Output
//
// When a file is configured every entry is also written there through
// lumberjack, which rotates the file by size and prunes old copies.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. Initialize itself is
// not and belongs at process start.
package logging
