package action

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/rangectl/internal/logging"
	"github.com/muurk/rangectl/internal/rangectl"
	"github.com/muurk/rangectl/internal/schedule"
)

// Adjustment is one scripted change applied to a control without a terminal.
// Exactly one of its fields must be set.
type Adjustment struct {
	By    int      // Signed number of steps
	To    *float64 // Target value, reached in whole steps
	ToMax bool
	ToMin bool
}

// Gestures returns the gestures that carry out the adjustment. A target
// value is reached by jumping to the nearer bound and stepping from there,
// so the result lands on the same grid an interactive user would reach.
func (a Adjustment) Gestures(opts rangectl.Options) ([]rangectl.Gesture, error) {
	set := 0
	if a.By != 0 {
		set++
	}
	if a.To != nil {
		set++
	}
	if a.ToMax {
		set++
	}
	if a.ToMin {
		set++
	}
	if set != 1 {
		return nil, NewConfigError("exactly one of --by, --to, --to-max or --to-min is required")
	}

	switch {
	case a.ToMax:
		return []rangectl.Gesture{rangectl.GestureJumpToMax}, nil
	case a.ToMin:
		return []rangectl.Gesture{rangectl.GestureJumpToMin}, nil
	case a.By != 0:
		g := rangectl.GestureIncrement
		n := a.By
		if n < 0 {
			g = rangectl.GestureDecrement
			n = -n
		}
		return repeat(nil, g, n), nil
	}

	target := opts.Clamp(*a.To)
	if target-opts.Min <= opts.Max-target {
		n := int(math.Round((target - opts.Min) / opts.Step))
		return repeat([]rangectl.Gesture{rangectl.GestureJumpToMin}, rangectl.GestureIncrement, n), nil
	}
	n := int(math.Round((opts.Max - target) / opts.Step))
	return repeat([]rangectl.Gesture{rangectl.GestureJumpToMax}, rangectl.GestureDecrement, n), nil
}

func repeat(gs []rangectl.Gesture, g rangectl.Gesture, n int) []rangectl.Gesture {
	for i := 0; i < n; i++ {
		gs = append(gs, g)
	}
	return gs
}

// AdjustResult reports what a headless adjustment did.
type AdjustResult struct {
	From      rangectl.Value
	To        float64
	Readout   string
	Percent   float64
	Submitted bool
	Err       error // Submission error, if the backend refused
}

// closeWatcher is the presenter of a headless control. It only needs to
// know when the control closes.
type closeWatcher struct {
	rangectl.NopPresenter
	onClosed func()
}

func (w *closeWatcher) Closed() { w.onClosed() }

// Adjust drives a control on its own event loop: it seeds the committed
// value, replays the adjustment's gestures and waits for the idle timer to
// commit. With immediate set the control is toggled closed straight away
// instead of waiting out the idle delay.
func Adjust(ctx context.Context, opts rangectl.Options, initial rangectl.Value, adj Adjustment, s Submitter, timeout time.Duration, immediate bool) (*AdjustResult, error) {
	gestures, err := adj.Gestures(opts)
	if err != nil {
		return nil, err
	}

	loop := schedule.NewLoop(schedule.DefaultLoopBuffer)
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = loop.Run(loopCtx) }()
	defer loop.Close()

	result := &AdjustResult{From: initial}
	done := make(chan struct{})
	var once sync.Once
	finish := func() { once.Do(func() { close(done) }) }

	var control *rangectl.Control
	dispatcher := NewDispatcher(s, loop, timeout, func(a rangectl.Action, err error) {
		result.Err = err
		finish()
	})
	sink := rangectl.ActionSinkFunc(func(a rangectl.Action) error {
		result.Submitted = true
		return dispatcher.RunAction(a)
	})
	watcher := &closeWatcher{onClosed: func() {
		// Closed fires before the commit; inspect the outcome afterwards.
		_ = loop.Post(func() {
			result.To, _ = control.Committed().Float()
			result.Readout = control.Readout()
			result.Percent = control.Options().Percent(result.To)
			if !result.Submitted {
				finish()
			}
		})
	}}

	var newErr error
	err = loop.Do(ctx, func() {
		control, newErr = rangectl.New(opts, watcher, sink, loop)
		if newErr != nil {
			return
		}
		control.SetValue(initial)
		control.Open()
		for _, g := range gestures {
			control.Dispatch(g)
		}
		if immediate {
			control.Toggle()
		}
	})
	if err != nil {
		return nil, err
	}
	if newErr != nil {
		return nil, newErr
	}

	logging.Debug("Headless adjustment started",
		zap.String("control", opts.Name),
		zap.Int("gestures", len(gestures)),
	)

	select {
	case <-done:
	case <-ctx.Done():
		dispatcher.Wait()
		return nil, ctx.Err()
	}

	_ = loop.Do(ctx, control.Shutdown)
	dispatcher.Wait()
	return result, nil
}

// InitialValue returns the backend's current value when the submitter can
// report state, waiting at most until ctx ends. Otherwise it returns
// rangectl.Unknown.
func InitialValue(ctx context.Context, s Submitter) rangectl.Value {
	sub, ok := s.(interface {
		Subscribe() (<-chan rangectl.Value, error)
	})
	if !ok {
		return rangectl.Unknown
	}

	states, err := sub.Subscribe()
	if err != nil {
		logging.Warn("State subscription failed", zap.Error(err))
		return rangectl.Unknown
	}

	select {
	case v, ok := <-states:
		if ok {
			return v
		}
	case <-ctx.Done():
	}
	return rangectl.Unknown
}
