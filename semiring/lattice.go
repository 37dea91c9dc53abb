package semiring

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Lattice pairs a graph cost with an acoustic cost. Both components are
// multiplied independently; + keeps the operand with the lower total cost.
type Lattice struct {
	Graph    float64
	Acoustic float64
}

func (Lattice) Zero() Lattice {
	return Lattice{Graph: math.Inf(1), Acoustic: math.Inf(1)}
}

func (Lattice) One() Lattice { return Lattice{} }

// compareLattice returns 1 if a is better than b, -1 if worse, 0 if equal.
func compareLattice(a, b Lattice) int {
	fa, fb := a.Graph+a.Acoustic, b.Graph+b.Acoustic
	switch {
	case fa < fb:
		return 1
	case fa > fb:
		return -1
	case a.Graph < b.Graph:
		return 1
	case a.Graph > b.Graph:
		return -1
	}
	return 0
}

func (w Lattice) isZero() bool {
	return math.IsInf(w.Graph, 1) || math.IsInf(w.Acoustic, 1)
}

func (w Lattice) Plus(o Lattice) Lattice {
	if compareLattice(w, o) >= 0 {
		return w
	}
	return o
}

func (w Lattice) Times(o Lattice) Lattice {
	if w.isZero() || o.isZero() {
		return w.Zero()
	}
	return Lattice{Graph: w.Graph + o.Graph, Acoustic: w.Acoustic + o.Acoustic}
}

func (w Lattice) LeftDivide(d Lattice) Lattice {
	if w.isZero() || d.isZero() {
		return w.Zero()
	}
	return Lattice{Graph: w.Graph - d.Graph, Acoustic: w.Acoustic - d.Acoustic}
}

func (w Lattice) RightDivide(d Lattice) Lattice { return w.LeftDivide(d) }
func (w Lattice) Reverse() Lattice              { return w }

func (w Lattice) Equal(o Lattice) bool {
	return w.Graph == o.Graph && w.Acoustic == o.Acoustic
}

func (w Lattice) Cost() float64 {
	if w.isZero() {
		return math.Inf(1)
	}
	return w.Graph + w.Acoustic
}

func (Lattice) FromCost(c float64) Lattice { return Lattice{Acoustic: c} }

func (Lattice) Properties() Properties {
	return Semiring | Commutative | Idempotent | Path
}

func (w Lattice) String() string {
	return formatFloat(w.Graph) + "," + formatFloat(w.Acoustic)
}

func (Lattice) Parse(s string) (Lattice, error) {
	g, a, ok := strings.Cut(s, ",")
	if !ok {
		return Lattice{}, fmt.Errorf("invalid lattice weight %q", s)
	}
	gv, err := parseFloat(g)
	if err != nil {
		return Lattice{}, fmt.Errorf("graph cost: %w", err)
	}
	av, err := parseFloat(a)
	if err != nil {
		return Lattice{}, fmt.Errorf("acoustic cost: %w", err)
	}
	return Lattice{Graph: gv, Acoustic: av}, nil
}

// CompactLattice is a Lattice weight carrying the label sequence emitted
// along the path. * concatenates sequences; + keeps the better operand,
// breaking ties by shorter and then lexicographically smaller sequence.
// Not commutative.
type CompactLattice struct {
	Weight Lattice
	Labels []int32
}

func (CompactLattice) Zero() CompactLattice {
	var l Lattice
	return CompactLattice{Weight: l.Zero()}
}

func (CompactLattice) One() CompactLattice { return CompactLattice{} }

func compareLabels(a, b []int32) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return 1
		}
		return -1
	}
	return -slices.Compare(a, b)
}

func (w CompactLattice) Plus(o CompactLattice) CompactLattice {
	c := compareLattice(w.Weight, o.Weight)
	if c == 0 {
		c = compareLabels(w.Labels, o.Labels)
	}
	if c >= 0 {
		return w
	}
	return o
}

func (w CompactLattice) Times(o CompactLattice) CompactLattice {
	if w.Weight.isZero() || o.Weight.isZero() {
		return w.Zero()
	}
	labels := make([]int32, 0, len(w.Labels)+len(o.Labels))
	labels = append(labels, w.Labels...)
	labels = append(labels, o.Labels...)
	if len(labels) == 0 {
		labels = nil
	}
	return CompactLattice{Weight: w.Weight.Times(o.Weight), Labels: labels}
}

// LeftDivide strips d's labels from the front of w's labels. d's labels
// must be a prefix of w's.
func (w CompactLattice) LeftDivide(d CompactLattice) CompactLattice {
	if w.Weight.isZero() || d.Weight.isZero() {
		return w.Zero()
	}
	if len(d.Labels) > len(w.Labels) || !slices.Equal(d.Labels, w.Labels[:len(d.Labels)]) {
		panic(fmt.Sprintf("semiring: left divide of %v by non-prefix %v", w, d))
	}
	return CompactLattice{
		Weight: w.Weight.LeftDivide(d.Weight),
		Labels: cloneLabels(w.Labels[len(d.Labels):]),
	}
}

// RightDivide strips d's labels from the end of w's labels. d's labels
// must be a suffix of w's.
func (w CompactLattice) RightDivide(d CompactLattice) CompactLattice {
	if w.Weight.isZero() || d.Weight.isZero() {
		return w.Zero()
	}
	n := len(w.Labels) - len(d.Labels)
	if n < 0 || !slices.Equal(d.Labels, w.Labels[n:]) {
		panic(fmt.Sprintf("semiring: right divide of %v by non-suffix %v", w, d))
	}
	return CompactLattice{
		Weight: w.Weight.RightDivide(d.Weight),
		Labels: cloneLabels(w.Labels[:n]),
	}
}

func (w CompactLattice) Reverse() CompactLattice {
	labels := cloneLabels(w.Labels)
	slices.Reverse(labels)
	return CompactLattice{Weight: w.Weight, Labels: labels}
}

func (w CompactLattice) Equal(o CompactLattice) bool {
	return w.Weight.Equal(o.Weight) && slices.Equal(w.Labels, o.Labels)
}

func (w CompactLattice) Cost() float64 { return w.Weight.Cost() }

func (CompactLattice) FromCost(c float64) CompactLattice {
	return CompactLattice{Weight: Lattice{Acoustic: c}}
}

func (CompactLattice) Properties() Properties {
	return Semiring | Idempotent | Path
}

func (w CompactLattice) String() string {
	var b strings.Builder
	b.WriteString(w.Weight.String())
	b.WriteByte(',')
	for i, l := range w.Labels {
		if i > 0 {
			b.WriteByte('_')
		}
		b.WriteString(strconv.FormatInt(int64(l), 10))
	}
	return b.String()
}

func (CompactLattice) Parse(s string) (CompactLattice, error) {
	parts := strings.SplitN(s, ",", 3)
	if len(parts) < 2 {
		return CompactLattice{}, fmt.Errorf("invalid compact lattice weight %q", s)
	}
	var l Lattice
	lw, err := l.Parse(parts[0] + "," + parts[1])
	if err != nil {
		return CompactLattice{}, err
	}
	w := CompactLattice{Weight: lw}
	if len(parts) == 3 && parts[2] != "" {
		for _, f := range strings.Split(parts[2], "_") {
			v, err := strconv.ParseInt(f, 10, 32)
			if err != nil {
				return CompactLattice{}, fmt.Errorf("label %q: %w", f, err)
			}
			w.Labels = append(w.Labels, int32(v))
		}
	}
	return w, nil
}

func cloneLabels(l []int32) []int32 {
	if len(l) == 0 {
		return nil
	}
	return slices.Clone(l)
}
