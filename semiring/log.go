package semiring

import (
	"math"

	"github.com/ieee0824/wfst-go/internal/mathutil"
)

// Log is a negated log probability: + is -log(e^-a + e^-b), * is addition.
type Log float64

func (Log) Zero() Log { return Log(math.Inf(1)) }
func (Log) One() Log  { return 0 }

func (w Log) Plus(o Log) Log {
	return Log(mathutil.NegLogAdd(float64(w), float64(o)))
}

func (w Log) Times(o Log) Log {
	return Log(addCost(float64(w), float64(o)))
}

func (w Log) LeftDivide(d Log) Log {
	if math.IsInf(float64(d), 1) || math.IsInf(float64(w), 1) {
		return w.Zero()
	}
	return w - d
}

func (w Log) RightDivide(d Log) Log { return w.LeftDivide(d) }
func (w Log) Reverse() Log          { return w }
func (w Log) Equal(o Log) bool      { return w == o }
func (w Log) Cost() float64         { return float64(w) }
func (Log) FromCost(c float64) Log  { return Log(c) }
func (Log) Properties() Properties  { return Semiring | Commutative }
func (w Log) String() string        { return formatFloat(float64(w)) }

func (Log) Parse(s string) (Log, error) {
	v, err := parseFloat(s)
	return Log(v), err
}

// NegLog accumulates log probabilities that are already negated back into
// the probability domain: + is log(e^a + e^b), * is addition, zero is -Inf.
type NegLog float64

func (NegLog) Zero() NegLog { return NegLog(math.Inf(-1)) }
func (NegLog) One() NegLog  { return 0 }

func (w NegLog) Plus(o NegLog) NegLog {
	return NegLog(mathutil.LogAdd(float64(w), float64(o)))
}

func (w NegLog) Times(o NegLog) NegLog {
	return NegLog(addScore(float64(w), float64(o)))
}

func (w NegLog) LeftDivide(d NegLog) NegLog {
	if math.IsInf(float64(d), -1) || math.IsInf(float64(w), -1) {
		return w.Zero()
	}
	return w - d
}

func (w NegLog) RightDivide(d NegLog) NegLog { return w.LeftDivide(d) }
func (w NegLog) Reverse() NegLog             { return w }
func (w NegLog) Equal(o NegLog) bool         { return w == o }
func (w NegLog) Cost() float64               { return -float64(w) }
func (NegLog) FromCost(c float64) NegLog     { return NegLog(-c) }
func (NegLog) Properties() Properties        { return Semiring | Commutative }
func (w NegLog) String() string              { return formatFloat(float64(w)) }

func (NegLog) Parse(s string) (NegLog, error) {
	v, err := parseFloat(s)
	return NegLog(v), err
}
