package schedule

import (
	"sync/atomic"
	"time"
)

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop prevents the callback from running. It returns false if the
	// callback already ran or the timer was already stopped.
	Stop() bool
}

// Scheduler runs a callback after a delay on the caller's serial context.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// task is a single scheduled callback shared by the Loop and Manual
// implementations. The state machine guards against running after Stop.
type task struct {
	fn    func()
	state atomic.Int32
}

const (
	taskPending int32 = iota
	taskStopped
	taskDone
)

func newTask(fn func()) *task {
	return &task{fn: fn}
}

// Stop implements Timer.
func (t *task) Stop() bool {
	return t.state.CompareAndSwap(taskPending, taskStopped)
}

// run executes the callback unless the task was stopped first.
func (t *task) run() bool {
	if !t.state.CompareAndSwap(taskPending, taskDone) {
		return false
	}
	t.fn()
	return true
}

func (t *task) pending() bool {
	return t.state.Load() == taskPending
}
