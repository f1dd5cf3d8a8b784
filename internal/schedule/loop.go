package schedule

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrLoopClosed is returned when posting to a loop that has stopped.
	ErrLoopClosed = errors.New("schedule: loop closed")

	// ErrLoopRunning is returned when Run is called twice.
	ErrLoopRunning = errors.New("schedule: loop already running")
)

// DefaultLoopBuffer is the task queue capacity used when NewLoop gets a
// non-positive size.
const DefaultLoopBuffer = 64

// Loop is a serial task queue. All posted tasks and all timer callbacks run
// on the goroutine that called Run, one at a time.
type Loop struct {
	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
	running   atomic.Bool
}

// NewLoop creates a loop with the given queue capacity.
func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = DefaultLoopBuffer
	}
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Run executes tasks until ctx is cancelled or Close is called.
// It returns nil after Close and ctx.Err() after cancellation.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer l.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case f := <-l.tasks:
			f()
		}
	}
}

// Post queues f for execution. It blocks while the queue is full.
func (l *Loop) Post(f func()) error {
	select {
	case <-l.done:
		return ErrLoopClosed
	default:
	}

	select {
	case <-l.done:
		return ErrLoopClosed
	case l.tasks <- f:
		return nil
	}
}

// Do posts f and waits for it to finish.
func (l *Loop) Do(ctx context.Context, f func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		f()
	}); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the loop. Pending tasks are dropped.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

// Done is closed once the loop has stopped.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// AfterFunc implements Scheduler. The wall-clock timer only posts the
// callback; the callback itself runs on the loop.
func (l *Loop) AfterFunc(d time.Duration, f func()) Timer {
	t := &loopTimer{task: newTask(f)}
	t.wall = time.AfterFunc(d, func() {
		_ = l.Post(func() { t.task.run() })
	})
	return t
}

type loopTimer struct {
	task *task
	wall *time.Timer
}

func (t *loopTimer) Stop() bool {
	stopped := t.task.Stop()
	t.wall.Stop()
	return stopped
}
