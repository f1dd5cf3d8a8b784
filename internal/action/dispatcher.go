package action

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/rangectl/internal/logging"
	"github.com/muurk/rangectl/internal/rangectl"
)

// Poster runs a function on the goroutine that owns a control.
// *schedule.Loop implements it.
type Poster interface {
	Post(f func()) error
}

// ResultFunc receives the outcome of a submission on the owning goroutine.
type ResultFunc func(a rangectl.Action, err error)

// Dispatcher is a rangectl.ActionSink that runs a blocking Submitter in the
// background. RunAction returns immediately; the outcome is posted back.
type Dispatcher struct {
	submitter Submitter
	poster    Poster
	timeout   time.Duration
	onResult  ResultFunc

	wg sync.WaitGroup
}

// NewDispatcher wraps s. onResult may be nil.
func NewDispatcher(s Submitter, p Poster, timeout time.Duration, onResult ResultFunc) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		submitter: s,
		poster:    p,
		timeout:   timeout,
		onResult:  onResult,
	}
}

// RunAction implements rangectl.ActionSink.
func (d *Dispatcher) RunAction(a rangectl.Action) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := d.submitter.Submit(ctx, a)
		cancel()

		if err != nil {
			logging.Warn("Submission failed",
				zap.Float64("value", a.Value),
				zap.Error(err),
			)
		}
		if d.onResult == nil {
			return
		}
		if perr := d.poster.Post(func() { d.onResult(a, err) }); perr != nil {
			logging.Debug("Dropped submission result", zap.Error(perr))
		}
	}()
	return nil
}

// Wait blocks until every started submission has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
