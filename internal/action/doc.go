// Package action delivers committed range control values to a backend.
//
// A Submitter sends one rangectl.Action and blocks until the backend has
// accepted or rejected it. Three transports are provided:
//
//   - RESTSink calls a Domogik-style REST gateway,
//     GET {base}/command/{technology}/{address}/{command}/{value}, retrying
//     transient failures with exponential backoff.
//   - WebSocketSink sends protocol command messages over a persistent
//     connection and waits for the matching ack. It also streams state
//     updates for its device.
//   - LogSink only logs, for dry runs.
//
// Controls call their sink synchronously on their own goroutine, so a
// blocking Submitter must not be used as a rangectl.ActionSink directly.
// Dispatcher adapts one: it runs Submit in the background and posts the
// outcome back onto a schedule.Loop.
//
// Adjust puts the pieces together for scripted use: it runs a control on
// its own Loop, replays an Adjustment as gestures and returns once the
// commit has been answered.
//
// Errors are *SinkError values classified the same way for every
// transport; IsRetryable tells the REST retry loop whether to try again.
package action
