package rangectl

import (
	"go.uber.org/zap"

	"github.com/muurk/rangectl/internal/logging"
	"github.com/muurk/rangectl/internal/schedule"
)

// Mode is the interaction mode of a control.
type Mode int

const (
	Closed Mode = iota
	Open
)

func (m Mode) String() string {
	if m == Open {
		return "open"
	}
	return "closed"
}

// Control is a single range control. It is not safe for concurrent use; see
// the package documentation.
type Control struct {
	opts      Options
	presenter Presenter
	sink      ActionSink
	sched     schedule.Scheduler

	mode      Mode
	committed Value
	pending   float64
	readout   string
	icon      string

	// Arc animation state, in whole percent units.
	displayed int
	target    int
	animating bool
	frame     schedule.Timer

	idle schedule.Timer
}

// New creates a closed control with an Unknown committed value and registers
// its buttons with the presenter. A nil presenter or sink is replaced by a
// no-op.
func New(opts Options, presenter Presenter, sink ActionSink, sched schedule.Scheduler) (*Control, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, &ConfigError{Field: "scheduler", Message: "is required"}
	}
	if presenter == nil {
		presenter = NopPresenter{}
	}
	if sink == nil {
		sink = nopSink{}
	}

	c := &Control{
		opts:      opts.withDefaults(),
		presenter: presenter,
		sink:      sink,
		sched:     sched,
	}

	for _, b := range Buttons {
		presenter.AddIconButton(b)
	}
	c.SetValue(Unknown)

	return c, nil
}

// Options returns the effective options, defaults applied.
func (c *Control) Options() Options { return c.opts }

// Mode returns the current interaction mode.
func (c *Control) Mode() Mode { return c.mode }

// IsOpen reports whether the control is open.
func (c *Control) IsOpen() bool { return c.mode == Open }

// Committed returns the last committed value.
func (c *Control) Committed() Value { return c.committed }

// Pending returns the value under adjustment.
func (c *Control) Pending() float64 { return c.pending }

// Readout returns the text last written to the presenter.
func (c *Control) Readout() string { return c.readout }

// Icon returns the icon name last sent to the presenter.
func (c *Control) Icon() string { return c.icon }

// DisplayedPercent returns the arc position currently drawn.
func (c *Control) DisplayedPercent() int { return c.displayed }

// TargetPercent returns the arc position the animation is heading to.
func (c *Control) TargetPercent() int { return c.target }

// Animating reports whether an animation frame is scheduled.
func (c *Control) Animating() bool { return c.animating }

// Open enters Open mode with the pending value reset to the committed value
// (zero when Unknown) and the arc swept up from zero. No-op when open.
func (c *Control) Open() {
	if c.mode == Open {
		return
	}
	c.setMode(Open)
	c.presenter.Opened()

	pending, ok := c.committed.Float()
	if !ok {
		pending = 0
	}
	c.displayed = 0
	c.setPending(pending)
}

// Close leaves Open mode. It does not commit and keeps the pending value.
// No-op when closed.
func (c *Control) Close() {
	if c.mode == Closed {
		return
	}
	c.setMode(Closed)
	c.presenter.Closed()
}

// Toggle is the primary click: it opens a closed control, and closes then
// commits an open one.
func (c *Control) Toggle() {
	if c.mode == Open {
		c.Close()
		c.Commit()
		return
	}
	c.Open()
}

// Cancel discards the pending value and shows the committed value again.
// The sink is never called.
func (c *Control) Cancel() {
	c.stopIdle()
	c.SetValue(c.committed)
	c.Close()
}

// Valid is the external confirmation hook: the pending value becomes the
// committed value, whatever the mode. A running idle timer is dropped.
func (c *Control) Valid() {
	c.stopIdle()
	c.SetValue(Known(c.pending))
}

// Commit submits the pending value when it differs from the committed value
// and then resynchronises the committed value and display. It reports
// whether the sink was called. Any running idle timer is stopped first.
//
// The warning logged for a sink error only covers sinks that report failure
// from RunAction. Asynchronous sinks such as action.Dispatcher return nil and
// deliver their outcome through their own result path.
func (c *Control) Commit() bool {
	c.stopIdle()
	submitted := !c.committed.Equal(c.pending)
	if submitted {
		if err := c.sink.RunAction(Action{Value: c.pending}); err != nil {
			logging.Warn("Action sink failed",
				zap.String("control", c.opts.Name),
				zap.Float64("value", c.pending),
				zap.Error(err),
			)
		}
	}
	logging.LogCommit(c.opts.Name, c.pending, submitted)

	c.SetValue(Known(c.pending))
	return submitted
}

// SetValue sets the committed value. Known values are clamped to the range
// and also become the pending value; Unknown resets the pending value to zero
// and shows the unknown placeholder.
func (c *Control) SetValue(v Value) {
	f, ok := v.Float()
	if !ok {
		c.committed = Unknown
		c.pending = 0
		c.icon = "unknown"
		c.presenter.DisplayIcon(c.icon)
		c.writeStatus(c.opts.FormatValue(Unknown))
		return
	}

	f = c.opts.Clamp(f)
	c.committed = Known(f)
	c.pending = f
	c.icon = "range_" + c.opts.Icon(c.opts.Usage, c.opts.Percent(f))
	c.presenter.DisplayIcon(c.icon)
	c.writeStatus(c.opts.Format(f))
}

// Increment raises the pending value by one step.
func (c *Control) Increment() {
	c.resetAutoClose()
	c.setPending(c.opts.ClampToStepGrid(c.pending + c.opts.Step))
}

// Decrement lowers the pending value by one step.
func (c *Control) Decrement() {
	c.resetAutoClose()
	c.setPending(c.opts.ClampToStepGrid(c.pending - c.opts.Step))
}

// JumpToMax sets the pending value to Max.
func (c *Control) JumpToMax() {
	c.resetAutoClose()
	c.setPending(c.opts.Max)
}

// JumpToMin sets the pending value to Min.
func (c *Control) JumpToMin() {
	c.resetAutoClose()
	c.setPending(c.opts.Min)
}

// Shutdown cancels both timers. The control must not be used afterwards.
func (c *Control) Shutdown() {
	c.stopIdle()
	if c.frame != nil {
		c.frame.Stop()
		c.frame = nil
	}
	c.animating = false
}

func (c *Control) setPending(v float64) {
	c.pending = c.opts.Clamp(v)
	c.writeStatus(c.opts.Format(c.pending))
	c.animateTo(c.opts.Percent(c.pending))
}

func (c *Control) writeStatus(text string) {
	c.readout = text
	c.presenter.WriteStatus(text)
}

func (c *Control) setMode(m Mode) {
	logging.LogTransition(c.opts.Name, c.mode.String(), m.String())
	c.mode = m
}

func (c *Control) logGesture(g Gesture) {
	logging.LogGesture(c.opts.Name, g.String())
}

// resetAutoClose (re)starts the debounced idle timer.
func (c *Control) resetAutoClose() {
	c.stopIdle()
	c.idle = c.sched.AfterFunc(c.opts.IdleClose, c.autoClose)
}

func (c *Control) stopIdle() {
	if c.idle != nil {
		c.idle.Stop()
		c.idle = nil
	}
}

func (c *Control) autoClose() {
	c.idle = nil
	c.Close()
	c.Commit()
}
