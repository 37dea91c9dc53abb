package fst

import (
	"github.com/ieee0824/wfst-go/semiring"
)

// Reverse returns the transducer accepting the reversed paths of f. State
// ids are preserved, arcs are flipped with reversed weights, and the
// initial and final weights trade places.
func Reverse[W semiring.Weight[W]](f Fst[W]) *VectorFst[W] {
	out := NewVectorFst[W]()
	out.AddStates(f.NumStates())
	for s := 0; s < f.NumStates(); s++ {
		for a := range f.Arcs(s) {
			out.AddArc(a.NextState, Arc[W]{
				ILabel:    a.ILabel,
				OLabel:    a.OLabel,
				Weight:    a.Weight.Reverse(),
				NextState: s,
			})
		}
		if fw := f.Final(s); !semiring.IsZero(fw) {
			out.SetInitial(s, fw.Reverse())
		}
	}
	for _, in := range f.Initials() {
		out.SetFinal(in.State, in.Weight.Reverse())
	}
	return out
}

// Connect removes the states that are not both reachable from an initial
// state and able to reach a final state. Surviving states keep their
// relative order.
func Connect[W semiring.Weight[W]](f Fst[W]) *VectorFst[W] {
	n := f.NumStates()
	access := make([]bool, n)
	var stack []StateID
	for _, in := range f.Initials() {
		if !access[in.State] {
			access[in.State] = true
			stack = append(stack, in.State)
		}
	}
	rev := make([][]StateID, n)
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for a := range f.Arcs(s) {
			if !access[a.NextState] {
				access[a.NextState] = true
				stack = append(stack, a.NextState)
			}
		}
	}
	for s := 0; s < n; s++ {
		if !access[s] {
			continue
		}
		for a := range f.Arcs(s) {
			rev[a.NextState] = append(rev[a.NextState], s)
		}
	}

	coaccess := make([]bool, n)
	for s := 0; s < n; s++ {
		if access[s] && IsFinal(f, s) {
			coaccess[s] = true
			stack = append(stack, s)
		}
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range rev[s] {
			if !coaccess[p] {
				coaccess[p] = true
				stack = append(stack, p)
			}
		}
	}

	out := Copy(f)
	var dead []StateID
	for s := 0; s < n; s++ {
		if !coaccess[s] {
			dead = append(dead, s)
		}
	}
	if len(dead) > 0 {
		out.EraseStates(dead)
	}
	return out
}
