// Package fst implements weighted finite-state transducers over the weights
// of package semiring, and the algorithms that transform them.
//
// All algorithms read transducers through the Fst interface, so they run
// unchanged over the mutable VectorFst and the flat, read-only ConstFst.
package fst

import (
	"iter"

	"github.com/ieee0824/wfst-go/semiring"
)

// StateID indexes a state. States are numbered densely from zero.
type StateID = int

// Label is an input or output symbol.
type Label = int32

const (
	// Epsilon is the reserved "no symbol" label.
	Epsilon Label = 0
	// NoLabel marks the implicit self-loops used during composition.
	NoLabel Label = -1
	// NoState is returned where no state exists.
	NoState StateID = -1
)

// Arc is a transition to NextState.
type Arc[W semiring.Weight[W]] struct {
	ILabel    Label
	OLabel    Label
	Weight    W
	NextState StateID
}

// IsEpsilon reports whether both labels of a are epsilon.
func (a Arc[W]) IsEpsilon() bool {
	return a.ILabel == Epsilon && a.OLabel == Epsilon
}

// Initial is an initial state and its weight.
type Initial[W semiring.Weight[W]] struct {
	State  StateID
	Weight W
}

// Fst is the read-only adjacency view every algorithm consumes.
type Fst[W semiring.Weight[W]] interface {
	NumStates() int
	// Initials lists the initial states in a stable order.
	Initials() []Initial[W]
	// Final returns the final weight of s, zero when s is not final.
	Final(s StateID) W
	NumArcs(s StateID) int
	InDegree(s StateID) int
	Arcs(s StateID) iter.Seq[Arc[W]]
}

// MutableFst is an Fst whose states, weights and arcs can be edited in
// place. VectorFst is the implementation.
type MutableFst[W semiring.Weight[W]] interface {
	Fst[W]
	AddState() StateID
	SetInitial(s StateID, w W)
	SetFinal(s StateID, w W)
	AddArc(s StateID, arc Arc[W])
	// SetArc replaces the i-th arc leaving s, in Arcs order.
	SetArc(s StateID, i int, arc Arc[W])
	EraseArc(s StateID, i int)
	DeleteArcs(s StateID)
	EraseStates(ids []StateID)
}

var _ MutableFst[semiring.Tropical] = (*VectorFst[semiring.Tropical])(nil)

// IsFinal reports whether s carries a nonzero final weight.
func IsFinal[W semiring.Weight[W]](f Fst[W], s StateID) bool {
	return !semiring.IsZero(f.Final(s))
}

// NumArcsTotal returns the number of arcs in f.
func NumArcsTotal[W semiring.Weight[W]](f Fst[W]) int {
	n := 0
	for s := 0; s < f.NumStates(); s++ {
		n += f.NumArcs(s)
	}
	return n
}

// Start returns the single initial state of f, or NoState when f has
// zero or several initial states.
func Start[W semiring.Weight[W]](f Fst[W]) StateID {
	inits := f.Initials()
	if len(inits) != 1 {
		return NoState
	}
	return inits[0].State
}
