package fst

import (
	"github.com/ieee0824/wfst-go/semiring"
)

// FilterState is the state of a composition filter.
type FilterState int

// NoFilterState is the blocking sentinel returned by Filter.
const NoFilterState FilterState = -1

// ComposeFilter decides which pairs of arcs Compose may combine. Arcs with
// ILabel or OLabel equal to NoLabel are the implicit self-loops standing for
// "this side does not move": a1 with OLabel NoLabel means f1 stays, a2 with
// ILabel NoLabel means f2 stays.
type ComposeFilter[W semiring.Weight[W]] interface {
	Start() FilterState
	// Filter returns the filter state after taking a1 and a2 together, or
	// NoFilterState when the move is not allowed.
	Filter(fs FilterState, a1, a2 *Arc[W]) FilterState
	Blocking(fs FilterState) bool
	// Weight is the final weight contributed by the filter state.
	Weight(fs FilterState) W
}

// NaiveFilter pairs arcs whose labels match, epsilon included, and never
// lets one side advance alone. Paths that need one side to wait on an
// epsilon are lost.
type NaiveFilter[W semiring.Weight[W]] struct{}

func (NaiveFilter[W]) Start() FilterState { return 0 }

func (NaiveFilter[W]) Filter(fs FilterState, a1, a2 *Arc[W]) FilterState {
	if a1.OLabel == NoLabel || a2.ILabel == NoLabel {
		return NoFilterState
	}
	return fs
}

func (NaiveFilter[W]) Blocking(fs FilterState) bool { return fs == NoFilterState }
func (NaiveFilter[W]) Weight(FilterState) W         { return semiring.One[W]() }

// SequenceFilter orders epsilon moves: f1 advances over its output epsilons
// first, then f2 over its input epsilons. Once f2 has moved alone, f1 may not
// move alone until a real match happens. Paired epsilon:epsilon matches are
// never taken, so every path is produced once.
type SequenceFilter[W semiring.Weight[W]] struct{}

func (SequenceFilter[W]) Start() FilterState { return 0 }

func (SequenceFilter[W]) Filter(fs FilterState, a1, a2 *Arc[W]) FilterState {
	switch {
	case a2.ILabel == NoLabel: // f1 moves on an output epsilon
		if fs != 0 {
			return NoFilterState
		}
		return 0
	case a1.OLabel == NoLabel: // f2 moves on an input epsilon
		return 1
	case a1.OLabel == Epsilon:
		return NoFilterState
	default:
		return 0
	}
}

func (SequenceFilter[W]) Blocking(fs FilterState) bool { return fs == NoFilterState }
func (SequenceFilter[W]) Weight(FilterState) W         { return semiring.One[W]() }

// MatchFilter prefers pairing an output epsilon of f1 with an input epsilon
// of f2. Single-sided epsilon moves are allowed only while the other side
// has not started its own run of single-sided moves.
type MatchFilter[W semiring.Weight[W]] struct{}

func (MatchFilter[W]) Start() FilterState { return 0 }

func (MatchFilter[W]) Filter(fs FilterState, a1, a2 *Arc[W]) FilterState {
	switch {
	case a2.ILabel == NoLabel:
		if fs == 2 {
			return NoFilterState
		}
		return 1
	case a1.OLabel == NoLabel:
		if fs == 1 {
			return NoFilterState
		}
		return 2
	case a1.OLabel == Epsilon:
		if fs != 0 {
			return NoFilterState
		}
		return 0
	default:
		return 0
	}
}

func (MatchFilter[W]) Blocking(fs FilterState) bool { return fs == NoFilterState }
func (MatchFilter[W]) Weight(FilterState) W         { return semiring.One[W]() }
