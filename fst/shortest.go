package fst

import (
	"iter"
	"slices"

	"github.com/ieee0824/wfst-go/semiring"
)

// relaxer runs the generalized single-source shortest-distance relaxation.
// It keeps a distance and a residual per touched state; a state re-enters the
// FIFO frontier whenever its distance changes. Termination relies on exact
// weight equality reaching a fixed point, which holds for the tropical and
// log semirings on graphs without negative cycles.
//
// Only touched states are reset between runs, so one relaxer can serve many
// sources of a large graph.
type relaxer[W semiring.Weight[W]] struct {
	adj     func(StateID) iter.Seq[Arc[W]]
	dist    []W
	resid   []W
	seen    []bool
	queued  []bool
	touched []StateID
	queue   []StateID
}

func newRelaxer[W semiring.Weight[W]](n int, adj func(StateID) iter.Seq[Arc[W]]) *relaxer[W] {
	return &relaxer[W]{
		adj:    adj,
		dist:   make([]W, n),
		resid:  make([]W, n),
		seen:   make([]bool, n),
		queued: make([]bool, n),
	}
}

func (r *relaxer[W]) touch(s StateID) {
	if r.seen[s] {
		return
	}
	zero := semiring.Zero[W]()
	r.seen[s] = true
	r.dist[s] = zero
	r.resid[s] = zero
	r.touched = append(r.touched, s)
}

func (r *relaxer[W]) enqueue(s StateID) {
	if !r.queued[s] {
		r.queued[s] = true
		r.queue = append(r.queue, s)
	}
}

func (r *relaxer[W]) run(seeds []Initial[W]) {
	zero := semiring.Zero[W]()
	for _, sd := range seeds {
		r.touch(sd.State)
		r.dist[sd.State] = r.dist[sd.State].Plus(sd.Weight)
		r.resid[sd.State] = r.resid[sd.State].Plus(sd.Weight)
		r.enqueue(sd.State)
	}
	for len(r.queue) > 0 {
		q := r.queue[0]
		r.queue = r.queue[1:]
		r.queued[q] = false
		res := r.resid[q]
		r.resid[q] = zero
		for a := range r.adj(q) {
			c := res.Times(a.Weight)
			if semiring.IsZero(c) {
				continue
			}
			n := a.NextState
			r.touch(n)
			nd := r.dist[n].Plus(c)
			if nd.Equal(r.dist[n]) {
				continue
			}
			r.dist[n] = nd
			r.resid[n] = r.resid[n].Plus(c)
			r.enqueue(n)
		}
	}
}

// reached returns the touched states in increasing order with their distances.
func (r *relaxer[W]) reached() []Reach[W] {
	slices.Sort(r.touched)
	out := make([]Reach[W], 0, len(r.touched))
	for _, s := range r.touched {
		if !semiring.IsZero(r.dist[s]) {
			out = append(out, Reach[W]{State: s, Weight: r.dist[s]})
		}
	}
	return out
}

func (r *relaxer[W]) reset() {
	for _, s := range r.touched {
		r.seen[s] = false
	}
	r.touched = r.touched[:0]
	r.queue = r.queue[:0]
}

// Reach is a state reached from a source together with the accumulated
// weight of the paths leading to it.
type Reach[W semiring.Weight[W]] struct {
	State  StateID
	Weight W
}

// ShortestDistance returns, for every state, the semiring sum of the weights
// of all paths from the initial states (including initial weights).
// Unreachable states get zero.
func ShortestDistance[W semiring.Weight[W]](f Fst[W]) []W {
	n := f.NumStates()
	r := newRelaxer(n, f.Arcs)
	r.run(f.Initials())
	zero := semiring.Zero[W]()
	d := make([]W, n)
	for s := range d {
		if r.seen[s] {
			d[s] = r.dist[s]
		} else {
			d[s] = zero
		}
	}
	return d
}

// PathSum returns the semiring sum over all accepting paths of f.
func PathSum[W semiring.Weight[W]](f Fst[W]) W {
	d := ShortestDistance(f)
	total := semiring.Zero[W]()
	for s, w := range d {
		if semiring.IsZero(w) {
			continue
		}
		total = total.Plus(w.Times(f.Final(s)))
	}
	return total
}
