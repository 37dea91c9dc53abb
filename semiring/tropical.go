package semiring

import "math"

// Tropical is a cost in the min-plus semiring: + is min, * is addition.
type Tropical float64

func (Tropical) Zero() Tropical { return Tropical(math.Inf(1)) }
func (Tropical) One() Tropical  { return 0 }

func (w Tropical) Plus(o Tropical) Tropical {
	if o < w {
		return o
	}
	return w
}

func (w Tropical) Times(o Tropical) Tropical {
	return Tropical(addCost(float64(w), float64(o)))
}

func (w Tropical) LeftDivide(d Tropical) Tropical {
	if math.IsInf(float64(d), 1) || math.IsInf(float64(w), 1) {
		return w.Zero()
	}
	return w - d
}

func (w Tropical) RightDivide(d Tropical) Tropical { return w.LeftDivide(d) }
func (w Tropical) Reverse() Tropical               { return w }
func (w Tropical) Equal(o Tropical) bool           { return w == o }
func (w Tropical) Cost() float64                   { return float64(w) }
func (Tropical) FromCost(c float64) Tropical       { return Tropical(c) }

func (Tropical) Properties() Properties {
	return Semiring | Commutative | Idempotent | Path
}

func (w Tropical) String() string { return formatFloat(float64(w)) }

func (Tropical) Parse(s string) (Tropical, error) {
	v, err := parseFloat(s)
	return Tropical(v), err
}

// MaxTropical is a score in the max-plus semiring: + is max, * is addition.
// Higher scores are better, so Cost is the negated score.
type MaxTropical float64

func (MaxTropical) Zero() MaxTropical { return MaxTropical(math.Inf(-1)) }
func (MaxTropical) One() MaxTropical  { return 0 }

func (w MaxTropical) Plus(o MaxTropical) MaxTropical {
	if o > w {
		return o
	}
	return w
}

func (w MaxTropical) Times(o MaxTropical) MaxTropical {
	return MaxTropical(addScore(float64(w), float64(o)))
}

func (w MaxTropical) LeftDivide(d MaxTropical) MaxTropical {
	if math.IsInf(float64(d), -1) || math.IsInf(float64(w), -1) {
		return w.Zero()
	}
	return w - d
}

func (w MaxTropical) RightDivide(d MaxTropical) MaxTropical { return w.LeftDivide(d) }
func (w MaxTropical) Reverse() MaxTropical                  { return w }
func (w MaxTropical) Equal(o MaxTropical) bool              { return w == o }
func (w MaxTropical) Cost() float64                         { return -float64(w) }
func (MaxTropical) FromCost(c float64) MaxTropical          { return MaxTropical(-c) }

func (MaxTropical) Properties() Properties {
	return Semiring | Commutative | Idempotent | Path
}

func (w MaxTropical) String() string { return formatFloat(float64(w)) }

func (MaxTropical) Parse(s string) (MaxTropical, error) {
	v, err := parseFloat(s)
	return MaxTropical(v), err
}
