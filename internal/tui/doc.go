// Package tui provides the interactive terminal screens of rangectl.
//
// DialModel hosts a single range control. The control itself is not safe
// for concurrent use, so everything that touches it runs inside Update:
//
//   - Timers (idle close, arc frames) are tea.Tick commands. When one
//     elapses its fireMsg runs the callback, unless the control stopped the
//     timer first.
//   - Committed values go to an action.Submitter from a command; the result
//     comes back as a message and is shown on the status line.
//   - Backend state (a WebSocket subscription) is read from a channel one
//     value at a time and applied with SetValue while the control is closed.
//
// Keys follow the focused-control bindings: home and end jump to the
// bounds, up and down step. enter or a left click opens the control and,
// when open, closes and commits it. esc cancels the pending value.
//
// PickerModel is the backend discovery screen used by `rangectl dial
// --discover`. It browses mDNS and also accepts a typed host:port.
//
// Screens share the frame drawn by RenderApplicationContainer.
package tui
