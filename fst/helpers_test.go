package fst

import (
	"github.com/ieee0824/wfst-go/semiring"
)

type trop = semiring.Tropical

type edge struct {
	from, to StateID
	in, out  Label
	w        float64
}

// tropicalFst builds an n-state transducer starting at state 0.
func tropicalFst(n int, edges []edge, finals map[StateID]float64) *VectorFst[trop] {
	f := NewVectorFst[trop]()
	f.AddStates(n)
	if n > 0 {
		f.SetInitial(0, trop(0))
	}
	for _, e := range edges {
		f.AddTransition(e.from, e.to, e.in, e.out, trop(e.w))
	}
	for s, w := range finals {
		f.SetFinal(s, trop(w))
	}
	return f
}

// countPaths counts the accepting paths of an acyclic transducer.
func countPaths[W semiring.Weight[W]](f Fst[W]) int {
	memo := make(map[StateID]int)
	var walk func(s StateID) int
	walk = func(s StateID) int {
		if n, ok := memo[s]; ok {
			return n
		}
		n := 0
		if IsFinal(f, s) {
			n++
		}
		for a := range f.Arcs(s) {
			n += walk(a.NextState)
		}
		memo[s] = n
		return n
	}
	total := 0
	for _, in := range f.Initials() {
		total += walk(in.State)
	}
	return total
}

func encodeTropical(w trop) float32 { return float32(w) }
func decodeTropical(v float32) trop { return trop(v) }
