package geometry

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultTolerance is the network-wide epsilon used when the caller
// does not supply one.
const DefaultTolerance Tolerance = 1e-8

// Tolerance is the single epsilon governing every approximate
// geometric decision: point equality, collinearity, coplanarity and
// face/cell matching. One value flows through the whole pipeline so
// that no two stages disagree about whether two points coincide.
type Tolerance float64

// Zero reports whether v is indistinguishable from zero.
func (t Tolerance) Zero(v float64) bool {
	return math.Abs(v) <= float64(t)
}

// Positive reports whether v is strictly positive beyond tolerance.
func (t Tolerance) Positive(v float64) bool {
	return v > float64(t)
}

// Negative reports whether v is strictly negative beyond tolerance.
func (t Tolerance) Negative(v float64) bool {
	return v < -float64(t)
}

// Eq reports whether two points are the same point: distance ≤ t.
func (t Tolerance) Eq(a, b v3.Vec) bool {
	return a.Sub(b).Length() <= float64(t)
}

// valid reports whether the tolerance itself is usable.
func (t Tolerance) valid() bool {
	return t > 0 && !math.IsInf(float64(t), 1) && !math.IsNaN(float64(t))
}

// Or returns t, or the default tolerance if t is unset or invalid.
func (t Tolerance) Or(def Tolerance) Tolerance {
	if t.valid() {
		return t
	}
	return def
}
