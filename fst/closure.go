package fst

import (
	"iter"
	"slices"

	"github.com/ieee0824/wfst-go/semiring"
)

// epsilonGraph extracts the arcs of f whose input and output labels are
// both epsilon.
func epsilonGraph[W semiring.Weight[W]](f Fst[W]) [][]Arc[W] {
	eps := make([][]Arc[W], f.NumStates())
	for s := range eps {
		for a := range f.Arcs(s) {
			if a.IsEpsilon() {
				eps[s] = append(eps[s], a)
			}
		}
	}
	return eps
}

// EpsilonClosure computes, for every state with at least one
// epsilon:epsilon arc, the states reachable through epsilon-only paths and
// the semiring sum of those paths' weights. The source itself is included
// with weight one plus the weight of any epsilon cycle through it. Entries
// are sorted by state.
func EpsilonClosure[W semiring.Weight[W]](f Fst[W]) map[StateID][]Reach[W] {
	eps := epsilonGraph(f)
	adj := func(s StateID) iter.Seq[Arc[W]] { return slices.Values(eps[s]) }
	r := newRelaxer(f.NumStates(), adj)
	one := semiring.One[W]()
	closure := make(map[StateID][]Reach[W])
	for s, arcs := range eps {
		if len(arcs) == 0 {
			continue
		}
		r.run([]Initial[W]{{State: s, Weight: one}})
		closure[s] = r.reached()
		r.reset()
	}
	return closure
}
