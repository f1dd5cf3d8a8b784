package rangectl

import (
	"math"
	"strconv"
)

// Value is a committed value: a number, or Unknown when nothing has been
// reported yet. The zero Value is Unknown.
type Value struct {
	v     float64
	known bool
}

// Unknown is the "no value yet" sentinel.
var Unknown = Value{}

// Known wraps a number. NaN is treated as Unknown.
func Known(v float64) Value {
	if math.IsNaN(v) {
		return Unknown
	}
	return Value{v: v, known: true}
}

// ValueOf converts an optional number, as decoded from JSON or YAML.
func ValueOf(v *float64) Value {
	if v == nil {
		return Unknown
	}
	return Known(*v)
}

// IsKnown reports whether the value holds a number.
func (v Value) IsKnown() bool {
	return v.known
}

// Float returns the number and whether it is known.
func (v Value) Float() (float64, bool) {
	return v.v, v.known
}

// Equal reports whether v holds exactly the number f. Unknown equals no
// number.
func (v Value) Equal(f float64) bool {
	return v.known && v.v == f
}

func (v Value) String() string {
	if !v.known {
		return "unknown"
	}
	return strconv.FormatFloat(v.v, 'f', -1, 64)
}
