// Package logger provides a simple, thread-safe logging facility.
//
// The logger supports four levels: Debug, Info, Warn, and Error.
// Each log entry includes a timestamp, level, optional worker ID, and message.
// Entries are written through logrus with a line formatter that keeps the
// harness output compact and greppable.
//
// # Basic Usage
//
// Using the default logger:
//
//	logger.Info("", "Harness started")
//	logger.Info("client-3", "connected to server")
//	logger.Warn("client-3", "Connection failed. Reconnecting...")
//
// Creating a custom logger:
//
//	l := logger.New(os.Stderr, logger.LevelDebug)
//	l.Debug("probe-0", "fragment sent")
//
// # Log Levels
//
// Messages below the configured level are filtered:
//   - LevelDebug: all messages
//   - LevelInfo: Info, Warn, Error
//   - LevelWarn: Warn, Error
//   - LevelError: Error only
//
// # Thread Safety
//
// logrus serializes writes with its own mutex, so all logging operations are
// safe for concurrent use.
package logger
