package rangectl

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UnknownReadout is shown in place of a number when the committed value is
// Unknown. The unit is appended.
const UnknownReadout = "---"

// maxDecimals bounds readout precision for steps with no short decimal form.
const maxDecimals = 6

// clamp limits v to [lo, hi] with three-way clamping.
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// snapToStep is the step-grid snap (v/step)*step. It is carried out in
// float64 with no truncation, so it only perturbs v by rounding error.
func snapToStep(v, step float64) float64 {
	return (v / step) * step
}

// ClampToStepGrid snaps v to the step grid and clamps it into the range.
func (o Options) ClampToStepGrid(v float64) float64 {
	return clamp(snapToStep(v, o.Step), o.Min, o.Max)
}

// Clamp limits v to [Min, Max].
func (o Options) Clamp(v float64) float64 {
	return clamp(v, o.Min, o.Max)
}

// Percent maps v to [0, 100] using the configured PercentMode.
func (o Options) Percent(v float64) float64 {
	span := o.Max - o.Min
	var p float64
	switch o.PercentMode {
	case PercentOfSpan:
		p = v / span * 100
	default:
		p = (v - o.Min) / span * 100
	}
	return clamp(p, 0, 100)
}

// arcUnits converts a percentage to the whole-percent units the animation
// steps through. Rounding keeps the one-unit-per-frame walk convergent.
func arcUnits(p float64) int {
	return int(math.Round(clamp(p, 0, 100)))
}

// ArcDegrees maps a displayed percentage to a clockwise sweep measured from
// twelve o'clock: 0% is 0°, 100% is a full circle.
func ArcDegrees(percent int) float64 {
	return float64(percent) * 360 / 100
}

// Format renders v with as many decimals as the step and bounds need, at
// most six, followed by the unit.
func (o Options) Format(v float64) string {
	return strconv.FormatFloat(v, 'f', o.decimals(), 64) + o.Unit
}

// FormatValue renders a committed value, or the unknown placeholder.
func (o Options) FormatValue(v Value) string {
	f, ok := v.Float()
	if !ok {
		return UnknownReadout + o.Unit
	}
	return o.Format(f)
}

func (o Options) decimals() int {
	d := 0
	for _, f := range []float64{o.Step, o.Min, o.Max} {
		if n := decimalPlaces(f); n > d {
			d = n
		}
	}
	return min(d, maxDecimals)
}

func decimalPlaces(f float64) int {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}

// DefaultIcon buckets the percentage into quarters: "<usage>_0",
// "<usage>_25" ... "<usage>_100".
func DefaultIcon(usage string, percent float64) string {
	if usage == "" {
		usage = "default"
	}
	level := int(math.Ceil(clamp(percent, 0, 100)/25)) * 25
	return fmt.Sprintf("%s_%d", usage, level)
}
