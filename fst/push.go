package fst

import (
	"slices"

	"github.com/ieee0824/wfst-go/semiring"
)

// Potentials returns, for every state, the semiring sum of the weights of
// all paths from that state to a final state, final weight included.
func Potentials[W semiring.Weight[W]](f Fst[W]) []W {
	d := ShortestDistance[W](Reverse[W](f))
	for s := range d {
		d[s] = d[s].Reverse()
	}
	return d
}

// Push moves weight toward the initial states in place. Every path keeps its
// total weight; states that cannot reach a final state are left unchanged.
func Push[W semiring.Weight[W]](f MutableFst[W]) {
	v := Potentials[W](f)
	for _, in := range f.Initials() {
		if !semiring.IsZero(v[in.State]) {
			f.SetInitial(in.State, in.Weight.Times(v[in.State]))
		}
	}
	for q := 0; q < f.NumStates(); q++ {
		vq := v[q]
		if semiring.IsZero(vq) {
			continue
		}
		for i, a := range slices.Collect(f.Arcs(q)) {
			if semiring.IsZero(v[a.NextState]) {
				continue
			}
			a.Weight = a.Weight.Times(v[a.NextState]).LeftDivide(vq)
			f.SetArc(q, i, a)
		}
		if fw := f.Final(q); !semiring.IsZero(fw) {
			f.SetFinal(q, fw.LeftDivide(vq))
		}
	}
}
