// Package semiring defines the weight algebra shared by transducers,
// transformation algorithms and the decoder.
//
// A weight type W implements Weight[W] on its value receiver, so the zero
// value of W can be used to reach Zero and One:
//
//	var w semiring.Tropical
//	total := w.Zero()
//	for _, x := range costs {
//		total = total.Plus(x)
//	}
package semiring

import (
	"math"
	"strconv"
)

// Properties describes algebraic properties of a semiring.
type Properties uint8

const (
	// LeftSemiring: * distributes over + from the left.
	LeftSemiring Properties = 1 << iota
	// RightSemiring: * distributes over + from the right.
	RightSemiring
	// Commutative: * is commutative.
	Commutative
	// Idempotent: w + w = w.
	Idempotent
	// Path: w1 + w2 is either w1 or w2.
	Path
)

// Semiring is a left and right semiring.
const Semiring = LeftSemiring | RightSemiring

// Has reports whether all bits of q are set in p.
func (p Properties) Has(q Properties) bool { return p&q == q }

// Weight is the contract every semiring value type satisfies.
// Equality is exact: algorithms use Equal as a fixed-point test.
type Weight[W any] interface {
	Zero() W
	One() W
	Plus(W) W
	Times(W) W
	// LeftDivide returns d⁻¹·w. Division by zero yields zero.
	LeftDivide(d W) W
	// RightDivide returns w·d⁻¹. Division by zero yields zero.
	RightDivide(d W) W
	// Reverse returns the weight in the reversed semiring.
	Reverse() W
	Equal(W) bool
	// Cost is the tropical cost view of the weight; lower is better.
	Cost() float64
	// FromCost lifts an acoustic cost into the semiring.
	FromCost(c float64) W
	Properties() Properties
	String() string
	Parse(s string) (W, error)
}

// Zero returns the additive identity of W.
func Zero[W Weight[W]]() W {
	var w W
	return w.Zero()
}

// One returns the multiplicative identity of W.
func One[W Weight[W]]() W {
	var w W
	return w.One()
}

// IsZero reports whether w is the additive identity.
func IsZero[W Weight[W]](w W) bool {
	return w.Equal(w.Zero())
}

// IsOne reports whether w is the multiplicative identity.
func IsOne[W Weight[W]](w W) bool {
	return w.Equal(w.One())
}

// Sum folds Plus over ws starting from zero.
func Sum[W Weight[W]](ws ...W) W {
	s := Zero[W]()
	for _, w := range ws {
		s = s.Plus(w)
	}
	return s
}

// Product folds Times over ws starting from one.
func Product[W Weight[W]](ws ...W) W {
	p := One[W]()
	for _, w := range ws {
		p = p.Times(w)
	}
	return p
}

// Better reports whether a has a strictly lower cost than b.
func Better[W Weight[W]](a, b W) bool {
	return a.Cost() < b.Cost()
}

// formatFloat renders v exactly, using the OpenFst spelling of infinities.
func formatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		return "0"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// addCost adds two costs; +Inf absorbs.
func addCost(a, b float64) float64 {
	if math.IsInf(a, 1) || math.IsInf(b, 1) {
		return math.Inf(1)
	}
	return a + b
}

// addScore adds two scores; -Inf absorbs.
func addScore(a, b float64) float64 {
	if math.IsInf(a, -1) || math.IsInf(b, -1) {
		return math.Inf(-1)
	}
	return a + b
}
