package semiring

import (
	"fmt"
	"math"
)

// Boolean is the two-element semiring: + is or, * is and.
type Boolean bool

func (Boolean) Zero() Boolean              { return false }
func (Boolean) One() Boolean               { return true }
func (w Boolean) Plus(o Boolean) Boolean   { return w || o }
func (w Boolean) Times(o Boolean) Boolean  { return w && o }
func (w Boolean) Reverse() Boolean         { return w }
func (w Boolean) Equal(o Boolean) bool     { return w == o }
func (Boolean) FromCost(c float64) Boolean { return Boolean(!math.IsInf(c, 1)) }

func (w Boolean) LeftDivide(d Boolean) Boolean {
	return w && d
}

func (w Boolean) RightDivide(d Boolean) Boolean { return w.LeftDivide(d) }

func (w Boolean) Cost() float64 {
	if w {
		return 0
	}
	return math.Inf(1)
}

func (Boolean) Properties() Properties {
	return Semiring | Commutative | Idempotent | Path
}

func (w Boolean) String() string {
	if w {
		return "1"
	}
	return "0"
}

func (Boolean) Parse(s string) (Boolean, error) {
	switch s {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean weight %q", s)
}
