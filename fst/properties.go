package fst

import (
	"github.com/ieee0824/wfst-go/semiring"
)

// IsDeterministic reports whether no state has two arcs sharing an input
// label and f has at most one initial state. Epsilon counts as an ordinary
// label here.
func IsDeterministic[W semiring.Weight[W]](f Fst[W]) bool {
	if len(f.Initials()) > 1 {
		return false
	}
	seen := make(map[Label]struct{})
	for s := 0; s < f.NumStates(); s++ {
		clear(seen)
		for a := range f.Arcs(s) {
			if _, dup := seen[a.ILabel]; dup {
				return false
			}
			seen[a.ILabel] = struct{}{}
		}
	}
	return true
}

// IsAcceptor reports whether every arc carries equal input and output labels.
func IsAcceptor[W semiring.Weight[W]](f Fst[W]) bool {
	for s := 0; s < f.NumStates(); s++ {
		for a := range f.Arcs(s) {
			if a.ILabel != a.OLabel {
				return false
			}
		}
	}
	return true
}

// HasEpsilons reports whether f contains an epsilon:epsilon arc.
func HasEpsilons[W semiring.Weight[W]](f Fst[W]) bool {
	for s := 0; s < f.NumStates(); s++ {
		for a := range f.Arcs(s) {
			if a.IsEpsilon() {
				return true
			}
		}
	}
	return false
}

// IsAcyclic reports whether f has no cycle reachable from anywhere.
func IsAcyclic[W semiring.Weight[W]](f Fst[W]) bool {
	const (
		white = iota
		grey
		black
	)
	n := f.NumStates()
	color := make([]uint8, n)
	type frame struct {
		s    StateID
		next []StateID
	}
	for root := 0; root < n; root++ {
		if color[root] != white {
			continue
		}
		stack := []frame{{s: root, next: successors(f, root)}}
		color[root] = grey
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if len(top.next) == 0 {
				color[top.s] = black
				stack = stack[:len(stack)-1]
				continue
			}
			t := top.next[0]
			top.next = top.next[1:]
			switch color[t] {
			case grey:
				return false
			case white:
				color[t] = grey
				stack = append(stack, frame{s: t, next: successors(f, t)})
			}
		}
	}
	return true
}

func successors[W semiring.Weight[W]](f Fst[W], s StateID) []StateID {
	out := make([]StateID, 0, f.NumArcs(s))
	for a := range f.Arcs(s) {
		out = append(out, a.NextState)
	}
	return out
}
