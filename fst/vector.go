package fst

import (
	"fmt"
	"iter"
	"slices"

	"github.com/ieee0824/wfst-go/semiring"
)

type vectorState[W semiring.Weight[W]] struct {
	final    W
	initial  W
	arcs     []Arc[W]
	inDegree int
}

// VectorFst is a mutable transducer backed by per-state adjacency lists.
type VectorFst[W semiring.Weight[W]] struct {
	states   []*vectorState[W]
	initials []StateID
}

// NewVectorFst returns an empty transducer.
func NewVectorFst[W semiring.Weight[W]]() *VectorFst[W] {
	return &VectorFst[W]{}
}

// Copy builds a VectorFst holding the same states, arcs and weights as f.
func Copy[W semiring.Weight[W]](f Fst[W]) *VectorFst[W] {
	out := NewVectorFst[W]()
	out.AddStates(f.NumStates())
	for s := 0; s < f.NumStates(); s++ {
		out.SetFinal(s, f.Final(s))
		for a := range f.Arcs(s) {
			out.AddArc(s, a)
		}
	}
	for _, in := range f.Initials() {
		out.SetInitial(in.State, in.Weight)
	}
	return out
}

func (f *VectorFst[W]) check(s StateID) {
	if s < 0 || s >= len(f.states) {
		panic(fmt.Sprintf("fst: state %d out of range [0,%d)", s, len(f.states)))
	}
}

// AddState appends a non-initial, non-final state and returns its index.
func (f *VectorFst[W]) AddState() StateID {
	zero := semiring.Zero[W]()
	f.states = append(f.states, &vectorState[W]{final: zero, initial: zero})
	return len(f.states) - 1
}

// AddStates appends n states.
func (f *VectorFst[W]) AddStates(n int) {
	for range n {
		f.AddState()
	}
}

func (f *VectorFst[W]) NumStates() int { return len(f.states) }

// SetInitial makes s initial with weight w. A zero weight clears the flag.
func (f *VectorFst[W]) SetInitial(s StateID, w W) {
	f.check(s)
	f.states[s].initial = w
	i := slices.Index(f.initials, s)
	switch {
	case semiring.IsZero(w) && i >= 0:
		f.initials = slices.Delete(f.initials, i, i+1)
	case !semiring.IsZero(w) && i < 0:
		f.initials = append(f.initials, s)
	}
}

// InitialWeight returns the initial weight of s, zero when s is not initial.
func (f *VectorFst[W]) InitialWeight(s StateID) W {
	f.check(s)
	return f.states[s].initial
}

func (f *VectorFst[W]) Initials() []Initial[W] {
	inits := make([]Initial[W], len(f.initials))
	for i, s := range f.initials {
		inits[i] = Initial[W]{State: s, Weight: f.states[s].initial}
	}
	return inits
}

// SetFinal sets the final weight of s. A zero weight makes s non-final.
func (f *VectorFst[W]) SetFinal(s StateID, w W) {
	f.check(s)
	f.states[s].final = w
}

func (f *VectorFst[W]) Final(s StateID) W {
	f.check(s)
	return f.states[s].final
}

// AddArc appends arc to the arcs leaving s.
func (f *VectorFst[W]) AddArc(s StateID, arc Arc[W]) {
	f.check(s)
	f.check(arc.NextState)
	f.states[s].arcs = append(f.states[s].arcs, arc)
	f.states[arc.NextState].inDegree++
}

// AddTransition adds an arc from -> to labeled in:out with weight w.
func (f *VectorFst[W]) AddTransition(from, to StateID, in, out Label, w W) {
	f.AddArc(from, Arc[W]{ILabel: in, OLabel: out, Weight: w, NextState: to})
}

// SetArc replaces the i-th arc leaving s.
func (f *VectorFst[W]) SetArc(s StateID, i int, arc Arc[W]) {
	f.check(s)
	f.check(arc.NextState)
	old := f.states[s].arcs[i]
	f.states[old.NextState].inDegree--
	f.states[s].arcs[i] = arc
	f.states[arc.NextState].inDegree++
}

// EraseArc removes the i-th arc leaving s.
func (f *VectorFst[W]) EraseArc(s StateID, i int) {
	f.check(s)
	st := f.states[s]
	f.states[st.arcs[i].NextState].inDegree--
	st.arcs = slices.Delete(st.arcs, i, i+1)
}

// DeleteArcs removes every arc leaving s.
func (f *VectorFst[W]) DeleteArcs(s StateID) {
	f.check(s)
	for _, a := range f.states[s].arcs {
		f.states[a.NextState].inDegree--
	}
	f.states[s].arcs = nil
}

func (f *VectorFst[W]) NumArcs(s StateID) int {
	f.check(s)
	return len(f.states[s].arcs)
}

func (f *VectorFst[W]) InDegree(s StateID) int {
	f.check(s)
	return f.states[s].inDegree
}

func (f *VectorFst[W]) Arcs(s StateID) iter.Seq[Arc[W]] {
	f.check(s)
	return slices.Values(f.states[s].arcs)
}

// ArcList returns the arcs leaving s. The slice must not be modified.
func (f *VectorFst[W]) ArcList(s StateID) []Arc[W] {
	f.check(s)
	return f.states[s].arcs
}

// EraseState removes s together with every arc entering or leaving it.
// States after s are renumbered down by one.
func (f *VectorFst[W]) EraseState(s StateID) {
	f.EraseStates([]StateID{s})
}

// EraseStates removes the given states and renumbers the survivors densely,
// preserving their relative order. Arcs and initial states are patched.
func (f *VectorFst[W]) EraseStates(ids []StateID) {
	if len(ids) == 0 {
		return
	}
	remap := make([]StateID, len(f.states))
	for _, s := range ids {
		f.check(s)
		remap[s] = NoState
	}
	kept := f.states[:0]
	next := 0
	for s, st := range f.states {
		if remap[s] == NoState {
			continue
		}
		remap[s] = next
		next++
		kept = append(kept, st)
	}
	clear(f.states[len(kept):])
	f.states = kept

	for _, st := range f.states {
		st.inDegree = 0
	}
	for _, st := range f.states {
		arcs := st.arcs[:0]
		for _, a := range st.arcs {
			if remap[a.NextState] == NoState {
				continue
			}
			a.NextState = remap[a.NextState]
			f.states[a.NextState].inDegree++
			arcs = append(arcs, a)
		}
		st.arcs = arcs
	}

	initials := f.initials[:0]
	for _, s := range f.initials {
		if remap[s] != NoState {
			initials = append(initials, remap[s])
		}
	}
	f.initials = initials
}

// MakeSuperInitial collapses the initial states into one state of weight
// one. When several initial states exist, or the only one carries a weight
// other than one, a new state is added with epsilon arcs to every former
// initial state carrying its former initial weight. It returns the
// resulting initial state, or NoState when f has none.
func (f *VectorFst[W]) MakeSuperInitial() StateID {
	switch {
	case len(f.initials) == 0:
		return NoState
	case len(f.initials) == 1 && semiring.IsOne(f.states[f.initials[0]].initial):
		return f.initials[0]
	}
	old := f.Initials()
	super := f.AddState()
	for _, in := range old {
		f.AddTransition(super, in.State, Epsilon, Epsilon, in.Weight)
		f.SetInitial(in.State, semiring.Zero[W]())
	}
	f.SetInitial(super, semiring.One[W]())
	return super
}
