package fst

import (
	"go.uber.org/zap"

	"github.com/ieee0824/wfst-go/semiring"
)

// RmEpsilon returns an equivalent transducer without epsilon:epsilon arcs.
//
// Every state p receives the non-epsilon arcs of each state q in its epsilon
// closure, weighted by the closure weight of q, and the closure-weighted
// final weights. A state is processed once per source, so an epsilon cycle
// through p contributes through p's own closure weight rather than through
// a second copy of p's arcs. The result is trimmed with Connect.
func RmEpsilon[W semiring.Weight[W]](f Fst[W]) *VectorFst[W] {
	closure := EpsilonClosure(f)
	one := semiring.One[W]()
	n := f.NumStates()

	out := NewVectorFst[W]()
	out.AddStates(n)
	for p := 0; p < n; p++ {
		reach, ok := closure[p]
		if !ok {
			reach = []Reach[W]{{State: p, Weight: one}}
		}
		final := semiring.Zero[W]()
		for _, r := range reach {
			for a := range f.Arcs(r.State) {
				if a.IsEpsilon() {
					continue
				}
				a.Weight = r.Weight.Times(a.Weight)
				out.AddArc(p, a)
			}
			final = final.Plus(r.Weight.Times(f.Final(r.State)))
		}
		out.SetFinal(p, final)
	}
	for _, in := range f.Initials() {
		out.SetInitial(in.State, in.Weight)
	}
	res := Connect[W](out)
	Logger().Debug("removed epsilons",
		zap.Int("closures", len(closure)),
		zap.Int("states", res.NumStates()),
		zap.Int("arcs", NumArcsTotal[W](res)))
	return res
}
