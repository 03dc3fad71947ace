// Package logging provides structured logging for the panellink engine.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the engine. It provides both general logging
// functions and specialized functions for protocol-specific logging needs.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (hex dumps, frame decoding, report I/O)
//   - Info: Normal operations (device open/close, listener state changes)
//   - Warn: Non-fatal issues (checksum mismatches, read retries, timeouts)
//   - Error: Fatal issues (transport open failures, critical errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Device opened",
//	    zap.String("device", path),
//	    zap.String("serial", serial),
//	    zap.String("firmware", fwVersion),
//	)
//
// # Specialized Logging
//
// The package provides domain-specific logging functions:
//
//	logging.LogDeviceEvent(path, "listener_started")
//	logging.LogReport(path, "received", 0x20, raw)
//	logging.LogCommand(path, "brightness", seq, bodyLen)
//	logging.LogResponse(path, "brightness", ack, status)
//
// # Configuration
//
// Logging is silent by default so the library never pollutes a consumer's
// output. Set PANELLINK_LOG_LEVEL or call Initialize explicitly:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
