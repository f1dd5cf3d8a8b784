// Package ui renders the non-interactive output of the rangectl CLI.
//
// Commands such as `adjust`, `scan`, `controls list` and `serve` print once
// and exit; they use a Printer rather than a Bubble Tea program. The
// components are:
//
//   - Header: command banner with the operation and its parameters
//   - Result: success, warning and failure boxes with ordered details
//   - Table: rows of controls or discovered backends
//   - Gauge: a one-line bar for a control value
//   - Confirm: a y/N prompt for destructive commands
//
// Width comes from the terminal (golang.org/x/term) and is clamped to
// [MinTerminalWidth, MaxContentWidth]. Tests pass an explicit width.
//
// # Logging Integration
//
// zap logging is silent unless RANGECTL_LOG_LEVEL or --log-level is set, so
// the boxes are the only output by default.
package ui
