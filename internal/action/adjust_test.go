package action

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/muurk/rangectl/internal/rangectl"
)

func adjustOptions() rangectl.Options {
	return rangectl.Options{
		Name:          "dimmer",
		Min:           0,
		Max:           100,
		Step:          10,
		Unit:          "%",
		IdleClose:     20 * time.Millisecond,
		FrameInterval: time.Millisecond,
	}
}

func float(v float64) *float64 { return &v }

type recordingSubmitter struct {
	mu     sync.Mutex
	values []float64
	err    error
}

func (r *recordingSubmitter) Submit(ctx context.Context, a rangectl.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, a.Value)
	return r.err
}

func (r *recordingSubmitter) got() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.values...)
}

func TestAdjustment_Gestures(t *testing.T) {
	opts := adjustOptions()
	inc, dec := rangectl.GestureIncrement, rangectl.GestureDecrement

	tests := []struct {
		name string
		adj  Adjustment
		want []rangectl.Gesture
	}{
		{"up two", Adjustment{By: 2}, []rangectl.Gesture{inc, inc}},
		{"down one", Adjustment{By: -1}, []rangectl.Gesture{dec}},
		{"max", Adjustment{ToMax: true}, []rangectl.Gesture{rangectl.GestureJumpToMax}},
		{"min", Adjustment{ToMin: true}, []rangectl.Gesture{rangectl.GestureJumpToMin}},
		{"to low value", Adjustment{To: float(20)}, []rangectl.Gesture{rangectl.GestureJumpToMin, inc, inc}},
		{"to high value", Adjustment{To: float(90)}, []rangectl.Gesture{rangectl.GestureJumpToMax, dec}},
		{"to rounds to grid", Adjustment{To: float(14)}, []rangectl.Gesture{rangectl.GestureJumpToMin, inc}},
		{"to clamps", Adjustment{To: float(500)}, []rangectl.Gesture{rangectl.GestureJumpToMax}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.adj.Gestures(opts)
			if err != nil {
				t.Fatalf("Gestures() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("gestures mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAdjustment_RequiresExactlyOneMode(t *testing.T) {
	for _, adj := range []Adjustment{{}, {By: 1, ToMax: true}, {To: float(3), ToMin: true}} {
		if _, err := adj.Gestures(adjustOptions()); err == nil {
			t.Errorf("Gestures(%+v) should fail", adj)
		}
	}
}

func TestAdjust_CommitsAfterIdle(t *testing.T) {
	sub := &recordingSubmitter{}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := Adjust(ctx, adjustOptions(), rangectl.Known(50), Adjustment{By: 2}, sub, time.Second, false)
	if err != nil {
		t.Fatalf("Adjust() error = %v", err)
	}

	if !res.Submitted || res.Err != nil {
		t.Errorf("Submitted = %v, Err = %v; want true, nil", res.Submitted, res.Err)
	}
	if res.To != 70 || res.Readout != "70%" || res.Percent != 70 {
		t.Errorf("result = %+v, want 70", res)
	}
	if diff := cmp.Diff([]float64{70}, sub.got()); diff != "" {
		t.Errorf("submissions mismatch (-want +got):\n%s", diff)
	}
}

func TestAdjust_Immediate(t *testing.T) {
	sub := &recordingSubmitter{}
	opts := adjustOptions()
	opts.IdleClose = time.Hour

	res, err := Adjust(context.Background(), opts, rangectl.Unknown, Adjustment{ToMax: true}, sub, time.Second, true)
	if err != nil {
		t.Fatalf("Adjust() error = %v", err)
	}
	if res.To != 100 || !res.Submitted {
		t.Errorf("result = %+v, want a submitted 100", res)
	}
	if res.From.IsKnown() {
		t.Errorf("From = %v, want unknown", res.From)
	}
}

func TestAdjust_UnchangedDoesNotSubmit(t *testing.T) {
	sub := &recordingSubmitter{}

	res, err := Adjust(context.Background(), adjustOptions(), rangectl.Known(30), Adjustment{To: float(30)}, sub, time.Second, false)
	if err != nil {
		t.Fatalf("Adjust() error = %v", err)
	}
	if res.Submitted {
		t.Error("an unchanged value must not be submitted")
	}
	if len(sub.got()) != 0 {
		t.Errorf("submissions = %v, want none", sub.got())
	}
}

func TestAdjust_ReportsSubmissionError(t *testing.T) {
	sub := &recordingSubmitter{err: NewRejectedError(3, "locked")}

	res, err := Adjust(context.Background(), adjustOptions(), rangectl.Known(0), Adjustment{By: 1}, sub, time.Second, false)
	if err != nil {
		t.Fatalf("Adjust() error = %v", err)
	}
	if !IsRejectedError(res.Err) {
		t.Errorf("Err = %v, want rejection", res.Err)
	}
	if res.To != 10 {
		t.Errorf("To = %v, want 10", res.To)
	}
}

func TestAdjust_BadOptions(t *testing.T) {
	opts := adjustOptions()
	opts.Max = opts.Min

	_, err := Adjust(context.Background(), opts, rangectl.Unknown, Adjustment{By: 1}, &recordingSubmitter{}, time.Second, false)
	if !rangectl.IsConfigError(err) {
		t.Errorf("Adjust() error = %v, want ConfigError", err)
	}
}

func TestAdjust_ContextCancelled(t *testing.T) {
	opts := adjustOptions()
	opts.IdleClose = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Adjust(ctx, opts, rangectl.Known(0), Adjustment{By: 1}, &recordingSubmitter{}, time.Second, false)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Adjust() error = %v, want deadline exceeded", err)
	}
}

func TestInitialValue(t *testing.T) {
	if v := InitialValue(context.Background(), NewLogSink("x")); v.IsKnown() {
		t.Errorf("InitialValue(log sink) = %v, want unknown", v)
	}

	initial := 40.0
	server := fakeBackend(t, &initial)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sink, err := DialWebSocket(ctx, wsURL(server), "lounge")
	if err != nil {
		t.Fatalf("DialWebSocket() error = %v", err)
	}
	defer sink.Close()

	if v := InitialValue(ctx, sink); !v.Equal(40) {
		t.Errorf("InitialValue() = %v, want 40", v)
	}
}
