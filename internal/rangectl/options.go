package rangectl

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// DefaultIdleClose is how long a control waits after the last
	// adjustment before closing and committing.
	DefaultIdleClose = 3 * time.Second

	// DefaultFrameInterval is the delay between arc animation frames.
	DefaultFrameInterval = 30 * time.Millisecond
)

// PercentMode selects how a value maps to an arc percentage.
type PercentMode int

const (
	// PercentOfRange is the position within [Min, Max]: (v-Min)/(Max-Min).
	PercentOfRange PercentMode = iota

	// PercentOfSpan divides the raw value by the span: v/(Max-Min).
	// Matches legacy dials that assume Min is zero.
	PercentOfSpan
)

// String returns the configuration name of the mode.
func (m PercentMode) String() string {
	switch m {
	case PercentOfRange:
		return "range"
	case PercentOfSpan:
		return "span"
	default:
		return fmt.Sprintf("PercentMode(%d)", int(m))
	}
}

// ParsePercentMode parses "range" or "span". Empty means range.
func ParsePercentMode(s string) (PercentMode, error) {
	switch s {
	case "", "range":
		return PercentOfRange, nil
	case "span":
		return PercentOfSpan, nil
	default:
		return PercentOfRange, &ConfigError{Field: "percent_mode", Message: fmt.Sprintf("unknown mode %q (want range or span)", s)}
	}
}

// IconFunc picks an icon name for a usage category at a percentage.
// The control prefixes the result with "range_".
type IconFunc func(usage string, percent float64) string

// Options configures a Control.
type Options struct {
	Name string // Used in logs

	Min  float64
	Max  float64
	Step float64

	Unit  string // Readout suffix, e.g. "%" or "°C"
	Usage string // Icon family, e.g. "light" or "temperature"

	IdleClose     time.Duration
	FrameInterval time.Duration

	PercentMode PercentMode
	Icon        IconFunc
}

// Validate rejects configurations the arithmetic cannot handle. A zero
// span would divide by zero in every percentage computation.
func (o Options) Validate() error {
	if math.IsNaN(o.Min) || math.IsInf(o.Min, 0) {
		return &ConfigError{Field: "min", Message: "must be a finite number"}
	}
	if math.IsNaN(o.Max) || math.IsInf(o.Max, 0) {
		return &ConfigError{Field: "max", Message: "must be a finite number"}
	}
	if !(o.Min < o.Max) {
		return &ConfigError{Field: "max", Message: fmt.Sprintf("must be greater than min (min=%v, max=%v)", o.Min, o.Max)}
	}
	if !(o.Step > 0) || math.IsInf(o.Step, 0) {
		return &ConfigError{Field: "step", Message: fmt.Sprintf("must be a positive finite number (got %v)", o.Step)}
	}
	if o.IdleClose < 0 {
		return &ConfigError{Field: "idle_close", Message: "must not be negative"}
	}
	if o.FrameInterval < 0 {
		return &ConfigError{Field: "frame_interval", Message: "must not be negative"}
	}
	if o.PercentMode != PercentOfRange && o.PercentMode != PercentOfSpan {
		return &ConfigError{Field: "percent_mode", Message: o.PercentMode.String()}
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.IdleClose == 0 {
		o.IdleClose = DefaultIdleClose
	}
	if o.FrameInterval == 0 {
		o.FrameInterval = DefaultFrameInterval
	}
	if o.Icon == nil {
		o.Icon = DefaultIcon
	}
	return o
}

// ConfigError reports an invalid option.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid range control option %s: %s", e.Field, e.Message)
}

// IsConfigError reports whether err is, or wraps, a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
