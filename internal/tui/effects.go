package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/rangectl/internal/action"
	"github.com/muurk/rangectl/internal/rangectl"
	"github.com/muurk/rangectl/internal/schedule"
)

// effects collects the commands a control asks for while Update runs. The
// model drains them into the command it returns.
type effects struct {
	queued []tea.Cmd
}

func (e *effects) add(cmd tea.Cmd) {
	e.queued = append(e.queued, cmd)
}

func (e *effects) drain() tea.Cmd {
	if len(e.queued) == 0 {
		return nil
	}
	cmds := e.queued
	e.queued = nil
	return tea.Batch(cmds...)
}

// fireMsg is delivered when a tick scheduled through cmdScheduler elapses.
type fireMsg struct {
	timer *tickTimer
}

type timerState int

const (
	timerPending timerState = iota
	timerStopped
	timerFired
)

// tickTimer is only touched from Update, so it needs no locking.
type tickTimer struct {
	fn    func()
	state timerState
}

// Stop implements schedule.Timer.
func (t *tickTimer) Stop() bool {
	if t.state != timerPending {
		return false
	}
	t.state = timerStopped
	return true
}

func (t *tickTimer) fire() {
	if t.state != timerPending {
		return
	}
	t.state = timerFired
	t.fn()
}

// cmdScheduler is a schedule.Scheduler backed by tea.Tick. Callbacks run
// inside Update when their fireMsg arrives, so the control never leaves the
// program's goroutine.
type cmdScheduler struct {
	fx *effects
}

var _ schedule.Scheduler = (*cmdScheduler)(nil)

// AfterFunc implements schedule.Scheduler.
func (s *cmdScheduler) AfterFunc(d time.Duration, f func()) schedule.Timer {
	t := &tickTimer{fn: f}
	s.fx.add(tea.Tick(d, func(time.Time) tea.Msg {
		return fireMsg{timer: t}
	}))
	return t
}

// actionResultMsg carries the outcome of a submission back into Update.
type actionResultMsg struct {
	action rangectl.Action
	err    error
}

// cmdSink is a rangectl.ActionSink that runs the submitter as a command.
type cmdSink struct {
	fx        *effects
	submitter action.Submitter
	timeout   time.Duration
}

// RunAction implements rangectl.ActionSink. The outcome arrives later as an
// actionResultMsg, so the returned error is always nil.
func (s *cmdSink) RunAction(a rangectl.Action) error {
	if s.submitter == nil {
		return nil
	}
	submitter, timeout := s.submitter, s.timeout
	s.fx.add(func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return actionResultMsg{action: a, err: submitter.Submit(ctx, a)}
	})
	return nil
}

// stateMsg is a value pushed by the backend. ok is false once the feed has
// closed.
type stateMsg struct {
	value rangectl.Value
	ok    bool
}

func waitForState(states <-chan rangectl.Value) tea.Cmd {
	if states == nil {
		return nil
	}
	return func() tea.Msg {
		v, ok := <-states
		return stateMsg{value: v, ok: ok}
	}
}
