// Package logging provides structured logging for rangectl.
//
// This package wraps a zap logger with package-level convenience functions
// and a handful of domain helpers for range-control events. The terminal dial
// owns stdout, so logging is silent unless explicitly enabled.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Gesture dispatch, animation start/stop, raw WebSocket payloads
//   - Info: Commits, backend connections, server lifecycle
//   - Warn: Failed submissions, dropped connections, retries
//   - Error: Startup failures, unrecoverable transport errors
//
// # Structured Logging
//
// All log functions use structured fields:
//
//	logging.Info("Backend connected",
//	    zap.String("url", "ws://192.168.1.20:8470/ws"),
//	    zap.String("device", "thermostat-1"),
//	)
//
// # Domain Helpers
//
//	logging.LogGesture("thermostat", "increment")
//	logging.LogTransition("thermostat", "closed", "open")
//	logging.LogCommit("thermostat", 21.5, true)
//	logging.LogConnection(remoteAddr, "websocket_upgraded")
//	logging.LogWebSocketMessage(remoteAddr, "received", msgType, payload)
//
// # Configuration
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When the level is empty the RANGECTL_LOG_LEVEL environment variable is
// consulted. InitializeToFile sends output to a file so a TUI session can be
// debugged without corrupting the screen.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
