package rangectl

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/muurk/rangectl/internal/schedule"
)

// recorder is a Presenter that keeps everything it was asked to draw.
type recorder struct {
	buttons []string
	status  string
	icon    string
	arcs    []int
	opened  int
	closed  int
}

func (r *recorder) AddIconButton(b Button)  { r.buttons = append(r.buttons, b.Name) }
func (r *recorder) WriteStatus(text string) { r.status = text }
func (r *recorder) DisplayIcon(name string) { r.icon = name }
func (r *recorder) DrawArc(percent int)     { r.arcs = append(r.arcs, percent) }
func (r *recorder) Opened()                 { r.opened++ }
func (r *recorder) Closed()                 { r.closed++ }

type sinkRecorder struct {
	actions []Action
	err     error
}

func (s *sinkRecorder) RunAction(a Action) error {
	s.actions = append(s.actions, a)
	return s.err
}

func percentOptions() Options {
	return Options{Name: "dimmer", Min: 0, Max: 100, Step: 10, Unit: "%", Usage: "light"}
}

func newTestControl(t *testing.T, opts Options) (*Control, *recorder, *sinkRecorder, *schedule.Manual) {
	t.Helper()
	rec := &recorder{}
	sink := &sinkRecorder{}
	clock := schedule.NewManual()
	c, err := New(opts, rec, sink, clock)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c, rec, sink, clock
}

func TestNew_InitialState(t *testing.T) {
	c, rec, _, _ := newTestControl(t, percentOptions())

	if c.Mode() != Closed {
		t.Errorf("Mode() = %v, want closed", c.Mode())
	}
	if c.Committed().IsKnown() {
		t.Errorf("Committed() = %v, want unknown", c.Committed())
	}
	if rec.status != "---%" {
		t.Errorf("status = %q, want ---%%", rec.status)
	}
	if rec.icon != "unknown" {
		t.Errorf("icon = %q, want unknown", rec.icon)
	}

	want := []string{"range_max", "range_plus", "range_minus", "range_min"}
	if diff := cmp.Diff(want, rec.buttons); diff != "" {
		t.Errorf("buttons mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_RejectsDegenerateOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"min equals max", Options{Min: 10, Max: 10, Step: 1}},
		{"min above max", Options{Min: 10, Max: 0, Step: 1}},
		{"zero step", Options{Min: 0, Max: 10, Step: 0}},
		{"negative step", Options{Min: 0, Max: 10, Step: -1}},
		{"NaN max", Options{Min: 0, Max: math.NaN(), Step: 1}},
		{"infinite min", Options{Min: math.Inf(-1), Max: 10, Step: 1}},
		{"negative idle", Options{Min: 0, Max: 10, Step: 1, IdleClose: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts, nil, nil, schedule.NewManual())
			if !IsConfigError(err) {
				t.Errorf("New() error = %v, want ConfigError", err)
			}
		})
	}

	if _, err := New(percentOptions(), nil, nil, nil); !IsConfigError(err) {
		t.Errorf("New() without scheduler error = %v, want ConfigError", err)
	}
}

func TestScenario_IncrementClampsAndCommits(t *testing.T) {
	c, rec, sink, _ := newTestControl(t, percentOptions())
	c.SetValue(Known(50))

	c.Open()
	c.Increment()
	if c.Pending() != 60 {
		t.Fatalf("Pending() = %v, want 60", c.Pending())
	}
	if rec.status != "60%" {
		t.Errorf("status = %q, want 60%%", rec.status)
	}

	for i := 0; i < 5; i++ {
		c.Increment()
	}
	if c.Pending() != 100 {
		t.Fatalf("Pending() = %v, want 100 (clamped)", c.Pending())
	}

	c.Close()
	if len(sink.actions) != 0 {
		t.Fatalf("Close() alone must not submit, got %v", sink.actions)
	}
	if !c.Commit() {
		t.Error("Commit() should report a submission")
	}

	if diff := cmp.Diff([]Action{{Value: 100}}, sink.actions); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}
	if rec.status != "100%" {
		t.Errorf("status = %q, want 100%%", rec.status)
	}
	if !c.Committed().Equal(100) {
		t.Errorf("Committed() = %v, want 100", c.Committed())
	}
}

func TestScenario_JumpToMinThenCancel(t *testing.T) {
	c, rec, sink, clock := newTestControl(t, percentOptions())
	c.SetValue(Known(50))

	c.Open()
	c.JumpToMin()
	if c.Pending() != 0 {
		t.Fatalf("Pending() = %v, want 0", c.Pending())
	}

	c.Cancel()
	if rec.status != "50%" {
		t.Errorf("status = %q, want 50%%", rec.status)
	}
	if c.Pending() != 50 {
		t.Errorf("Pending() = %v, want 50", c.Pending())
	}
	if c.Mode() != Closed {
		t.Errorf("Mode() = %v, want closed", c.Mode())
	}

	// The idle timer was cancelled with the pending value.
	clock.Advance(time.Minute)
	if len(sink.actions) != 0 {
		t.Errorf("cancel must not submit, got %v", sink.actions)
	}
}

func TestCommit_NoOpWhenUnchanged(t *testing.T) {
	c, _, sink, _ := newTestControl(t, percentOptions())
	c.SetValue(Known(30))

	c.Open()
	c.Toggle()

	if len(sink.actions) != 0 {
		t.Errorf("unchanged commit submitted %v", sink.actions)
	}

	// Back to the same value after a round trip also counts as unchanged.
	c.Open()
	c.Increment()
	c.Decrement()
	if c.Commit() {
		t.Error("Commit() should be a no-op when pending equals committed")
	}
}

func TestCommit_FromUnknownSubmits(t *testing.T) {
	c, _, sink, _ := newTestControl(t, percentOptions())

	c.Open()
	c.Toggle()

	if diff := cmp.Diff([]Action{{Value: 0}}, sink.actions); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}
	if !c.Committed().Equal(0) {
		t.Errorf("Committed() = %v, want 0", c.Committed())
	}
}

func TestCommit_SinkErrorStillResyncs(t *testing.T) {
	c, _, sink, _ := newTestControl(t, percentOptions())
	sink.err = errors.New("backend down")
	c.SetValue(Known(10))

	c.Open()
	c.JumpToMax()
	c.Toggle()

	if len(sink.actions) != 1 {
		t.Fatalf("sink called %d times, want 1", len(sink.actions))
	}
	if !c.Committed().Equal(100) {
		t.Errorf("Committed() = %v, want 100", c.Committed())
	}
}

func TestSetValue_UnknownRoundTrip(t *testing.T) {
	c, rec, _, _ := newTestControl(t, percentOptions())
	c.SetValue(Known(20))

	c.SetValue(Unknown)
	if rec.status != "---%" {
		t.Errorf("status = %q, want ---%%", rec.status)
	}
	if c.Pending() != 0 {
		t.Errorf("Pending() = %v, want 0", c.Pending())
	}
	if rec.icon != "unknown" {
		t.Errorf("icon = %q, want unknown", rec.icon)
	}

	c.SetValue(Known(50))
	if rec.status != "50%" {
		t.Errorf("status = %q, want 50%%", rec.status)
	}
	if !c.Committed().Equal(50) {
		t.Errorf("Committed() = %v, want 50", c.Committed())
	}
	if rec.icon != "range_light_50" {
		t.Errorf("icon = %q, want range_light_50", rec.icon)
	}
}

func TestSetValue_ZeroIsAValue(t *testing.T) {
	c, rec, _, _ := newTestControl(t, percentOptions())
	c.SetValue(Known(0))

	if rec.status != "0%" {
		t.Errorf("status = %q, want 0%%", rec.status)
	}
	if !c.Committed().IsKnown() {
		t.Error("zero must not be treated as unknown")
	}
}

func TestClamping(t *testing.T) {
	opts := Options{Min: -20, Max: 40, Step: 7, Unit: "°"}
	inputs := []float64{-1000, -20.5, -20, 0, 3.3, 39.9, 40, 40.1, 1e9, math.Inf(1), math.Inf(-1)}

	for _, v := range inputs {
		c, _, _, _ := newTestControl(t, opts)
		c.SetValue(Known(v))
		committed, _ := c.Committed().Float()
		if committed < opts.Min || committed > opts.Max {
			t.Errorf("SetValue(%v) committed %v outside range", v, committed)
		}

		c.Open()
		for _, g := range []Gesture{GestureIncrement, GestureIncrement, GestureDecrement, GestureJumpToMax, GestureIncrement, GestureJumpToMin, GestureDecrement} {
			c.Dispatch(g)
			if p := c.Pending(); p < opts.Min || p > opts.Max {
				t.Errorf("after %v from %v pending %v outside range", g, v, p)
			}
		}
	}
}

func TestOpen_ResetsPendingFromCommitted(t *testing.T) {
	c, rec, _, _ := newTestControl(t, percentOptions())
	c.SetValue(Known(40))

	c.Open()
	c.Increment()
	c.Close() // no commit

	c.Open()
	if c.Pending() != 40 {
		t.Errorf("Pending() after reopen = %v, want 40", c.Pending())
	}
	if rec.opened != 2 || rec.closed != 1 {
		t.Errorf("opened=%d closed=%d, want 2 and 1", rec.opened, rec.closed)
	}
}

func TestOpen_UnknownClampsToMin(t *testing.T) {
	c, _, _, _ := newTestControl(t, Options{Min: 5, Max: 30, Step: 0.5, Unit: "°C"})

	c.Open()
	if c.Pending() != 5 {
		t.Errorf("Pending() = %v, want 5", c.Pending())
	}
	if c.Readout() != "5.0°C" {
		t.Errorf("Readout() = %q, want 5.0°C", c.Readout())
	}
}

func TestRedundantTransitionsAreNoOps(t *testing.T) {
	c, rec, _, _ := newTestControl(t, percentOptions())

	c.Close()
	if rec.closed != 0 {
		t.Error("Close() on a closed control should not call the presenter")
	}

	c.Open()
	c.Increment()
	pending := c.Pending()
	c.Open()
	if rec.opened != 1 {
		t.Errorf("opened = %d, want 1", rec.opened)
	}
	if c.Pending() != pending {
		t.Errorf("second Open() reset pending to %v", c.Pending())
	}
}

func TestValid_CommitsWithoutSink(t *testing.T) {
	c, rec, sink, _ := newTestControl(t, percentOptions())
	c.SetValue(Known(10))
	c.Open()
	c.Increment()

	c.Valid()
	if !c.Committed().Equal(20) {
		t.Errorf("Committed() = %v, want 20", c.Committed())
	}
	if rec.status != "20%" {
		t.Errorf("status = %q, want 20%%", rec.status)
	}
	if len(sink.actions) != 0 {
		t.Errorf("Valid() must not submit, got %v", sink.actions)
	}
}

func TestIdleDebounce_SingleCommitWithLastValue(t *testing.T) {
	c, _, sink, clock := newTestControl(t, percentOptions())
	c.SetValue(Known(50))
	c.Open()

	for i := 0; i < 4; i++ {
		c.Increment()
		clock.Advance(DefaultIdleClose / 2)
	}
	if len(sink.actions) != 0 {
		t.Fatalf("timer fired inside the idle window: %v", sink.actions)
	}

	clock.Advance(DefaultIdleClose)

	if diff := cmp.Diff([]Action{{Value: 90}}, sink.actions); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}
	if c.Mode() != Closed {
		t.Errorf("Mode() = %v, want closed after idle", c.Mode())
	}

	clock.Advance(time.Hour)
	if len(sink.actions) != 1 {
		t.Errorf("sink called %d times, want exactly 1", len(sink.actions))
	}
}

func TestIdleDebounce_ClosedControlStillCommits(t *testing.T) {
	c, _, sink, clock := newTestControl(t, percentOptions())
	c.SetValue(Known(50))

	c.Dispatch(GestureDecrement)
	clock.Advance(DefaultIdleClose)

	if diff := cmp.Diff([]Action{{Value: 40}}, sink.actions); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}
}

func TestIdleDebounce_CustomDuration(t *testing.T) {
	opts := percentOptions()
	opts.IdleClose = 500 * time.Millisecond
	c, _, sink, clock := newTestControl(t, opts)
	c.SetValue(Known(50))
	c.Open()
	c.JumpToMax()

	clock.Advance(499 * time.Millisecond)
	if len(sink.actions) != 0 {
		t.Fatal("fired early")
	}
	clock.Advance(time.Millisecond)
	if len(sink.actions) != 1 {
		t.Fatalf("sink called %d times, want 1", len(sink.actions))
	}
}

func TestExplicitCommitStopsIdleTimer(t *testing.T) {
	tests := []struct {
		name   string
		commit func(c *Control)
	}{
		{name: "toggle", commit: func(c *Control) { c.Toggle() }},
		{name: "valid", commit: func(c *Control) { c.Valid(); c.Close() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _, clock := newTestControl(t, percentOptions())
			c.SetValue(Known(50))
			c.Open()
			c.Increment()
			clock.Advance(time.Second)

			tt.commit(c)
			if !c.Committed().Equal(60) {
				t.Fatalf("Committed() = %v, want 60", c.Committed())
			}
			clock.Advance(time.Second)

			c.Toggle()
			clock.Advance(DefaultIdleClose - time.Second - time.Millisecond)
			if c.Mode() != Open {
				t.Errorf("Mode() = %v, want open: reopened dial closed by an earlier idle timer", c.Mode())
			}
		})
	}
}

func TestGestureForKey(t *testing.T) {
	tests := map[string]Gesture{
		"home": GestureJumpToMax,
		"end":  GestureJumpToMin,
		"up":   GestureIncrement,
		"down": GestureDecrement,
	}
	for key, want := range tests {
		got, ok := GestureForKey(key)
		if !ok || got != want {
			t.Errorf("GestureForKey(%q) = %v, %v; want %v", key, got, ok, want)
		}
	}
	if _, ok := GestureForKey("left"); ok {
		t.Error("GestureForKey(left) should not map")
	}
}

func TestShutdownStopsTimers(t *testing.T) {
	c, _, sink, clock := newTestControl(t, percentOptions())
	c.SetValue(Known(0))
	c.Open()
	c.JumpToMax()

	c.Shutdown()
	if clock.Pending() != 0 {
		t.Errorf("Pending() = %d after Shutdown, want 0", clock.Pending())
	}
	clock.Advance(time.Hour)
	if len(sink.actions) != 0 {
		t.Error("idle commit fired after Shutdown")
	}
}
