package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestResult_DetailsKeepOrder(t *testing.T) {
	r := NewSuccessResult("Dimmer set",
		Detail{"Control", "dimmer"},
		Detail{"Value", "60%"},
		Detail{"Backend", "rest"},
	)
	r.Width = 80
	out := r.Render()

	iControl := strings.Index(out, "Control:")
	iValue := strings.Index(out, "Value:")
	iBackend := strings.Index(out, "Backend:")
	if iControl < 0 || iValue < iControl || iBackend < iValue {
		t.Errorf("details out of order:\n%s", out)
	}
	if !strings.Contains(out, "SUCCESS") || !strings.Contains(out, "Dimmer set") {
		t.Errorf("missing title:\n%s", out)
	}
}

func TestResult_Failure(t *testing.T) {
	r := NewFailureResult("Submission failed", errors.New("connection refused"), "Is the backend running?")
	r.Width = 80
	out := r.Render()

	for _, want := range []string{"FAILED", "Error: connection refused", "Troubleshooting:", "Is the backend running?"} {
		if !strings.Contains(out, want) {
			t.Errorf("failure box missing %q:\n%s", want, out)
		}
	}
}

func TestHeader(t *testing.T) {
	h := NewHeader("adjust", "rangectl adjust dimmer --by 2", Detail{"Control", "dimmer"})
	h.Width = 70
	out := h.Render()
	if !strings.Contains(out, "ADJUST") || !strings.Contains(out, "Control: dimmer") {
		t.Errorf("header:\n%s", out)
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf).WithWidth(10)
	if p.Width() != MinTerminalWidth {
		t.Errorf("Width() = %d, want clamp to %d", p.Width(), MinTerminalWidth)
	}

	p.PrintTable([]string{"NAME", "RANGE"}, [][]string{{"dimmer", "0 … 100 %"}, {"thermostat", "5 … 30 °C"}})
	p.PrintGauge("Dimmer", "60%", 60)
	p.PrintWarning("No backends found")

	out := buf.String()
	for _, want := range []string{"NAME", "thermostat", "5 … 30 °C", "Dimmer", "60%", "WARNING"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"yes", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got := Confirm(strings.NewReader(tt.input), &out, "Remove control", []string{"dimmer will be deleted"}, 80)
		if got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "dimmer will be deleted") {
			t.Errorf("warning not printed for %q", tt.input)
		}
	}
}
