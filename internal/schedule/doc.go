// Package schedule provides the delayed-callback primitives used by range
// controls.
//
// A range control is single-threaded: every gesture handler and every timer
// callback must run on the same serial context, one at a time. This package
// supplies the Scheduler seam the control depends on, plus two
// implementations that preserve that contract.
//
// # Loop
//
// Loop is a serial task queue. Tasks are posted from any goroutine and run
// one after another on the goroutine that called Run. Timers created with
// Loop.AfterFunc post their callback into the same queue, so a fired timer
// never races with a gesture.
//
//	loop := schedule.NewLoop(64)
//	go loop.Run(ctx)
//
//	loop.Do(func() { ctrl.Open() })
//
// # Manual
//
// Manual is a virtual clock. Nothing fires until Advance is called, which
// makes debounce and animation behaviour fully deterministic in tests:
//
//	clock := schedule.NewManual()
//	ctrl, _ := rangectl.New(opts, presenter, sink, clock)
//	ctrl.Increment()
//	clock.Advance(3 * time.Second) // idle timer fires here
//
// # Cancellation
//
// Stopping a Timer guarantees its callback will not run afterwards, even when
// the underlying wall-clock timer already expired and the callback is queued.
package schedule
