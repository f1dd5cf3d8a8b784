// Package rangectl implements the state machine behind a dial-style range
// control: a bounded numeric value (thermostat setpoint, dimmer level) that a
// user opens, nudges with step gestures, and commits.
//
// # Values
//
// A control tracks two values:
//   - the committed value, last confirmed and reported outward, which may be
//     Unknown before the backend has reported anything;
//   - the pending value, adjusted live while the control is open and always
//     clamped to [Min, Max].
//
// # Modes
//
// Closed is the initial mode. Open copies the committed value into the
// pending value and sweeps the arc from zero. Toggle (the primary click) opens
// a closed control and closes-then-commits an open one. Commit submits the
// pending value to the ActionSink only when it differs from the committed
// value, then resynchronises the display.
//
// # Timers
//
// Every adjustment restarts a debounced idle timer; when it fires the control
// closes and commits. The arc indicator animates one percent per frame toward
// its target with a single-flight loop that stops exactly on convergence.
//
// Both timers are scheduled through a schedule.Scheduler. The control holds
// no locks: every method, and every scheduled callback, must run on the same
// serial context (a schedule.Loop, a Bubble Tea Update loop, or a
// schedule.Manual clock in tests).
//
// # Collaborators
//
//	ctrl, err := rangectl.New(rangectl.Options{
//	    Name: "living-room",
//	    Min:  5, Max: 30, Step: 0.5,
//	    Unit: "°C", Usage: "temperature",
//	}, presenter, sink, loop)
//
// The Presenter renders the readout, icon and arc. The ActionSink receives
// committed values.
package rangectl
