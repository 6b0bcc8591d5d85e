package ocp

import "math"

// Bounds is an optional closed interval. The zero value is unset, which
// the transcription engine treats as (-inf, +inf).
type Bounds struct {
	Lower   float64
	Upper   float64
	Defined bool
}

// Range returns bounds spanning [lower, upper].
func Range(lower, upper float64) Bounds {
	return Bounds{Lower: lower, Upper: upper, Defined: true}
}

// Fixed returns zero-width bounds pinning a variable to value.
func Fixed(value float64) Bounds {
	return Bounds{Lower: value, Upper: value, Defined: true}
}

// Free returns unset bounds.
func Free() Bounds { return Bounds{} }

func (b Bounds) IsSet() bool { return b.Defined }

// LowerOrInf returns the lower bound, or -inf when unset.
func (b Bounds) LowerOrInf() float64 {
	if !b.Defined {
		return math.Inf(-1)
	}
	return b.Lower
}

// UpperOrInf returns the upper bound, or +inf when unset.
func (b Bounds) UpperOrInf() float64 {
	if !b.Defined {
		return math.Inf(1)
	}
	return b.Upper
}
