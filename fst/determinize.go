package fst

import (
	"cmp"
	"errors"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ieee0824/wfst-go/semiring"
)

// ErrStateLimit is returned by Determinize when the output grows past
// DeterminizeOptions.StateLimit.
var ErrStateLimit = errors.New("fst: determinization state limit exceeded")

// DeterminizeOptions bounds the subset construction.
type DeterminizeOptions struct {
	// StateLimit aborts determinization once the output holds more states.
	// Zero means unlimited.
	StateLimit int
}

// detElement is one member of a weighted subset: a source state, the output
// labels still owed on the way to it, and its residual weight.
type detElement[W semiring.Weight[W]] struct {
	state    StateID
	residual []Label
	weight   W
}

type detSubset[W semiring.Weight[W]] []detElement[W]

func (s detSubset[W]) key() string {
	var b strings.Builder
	for _, e := range s {
		b.WriteString(strconv.Itoa(e.state))
		b.WriteByte('[')
		for i, l := range e.residual {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.Itoa(int(l)))
		}
		b.WriteString("]")
		b.WriteString(e.weight.String())
		b.WriteByte(';')
	}
	return b.String()
}

// normalize sorts members and merges those sharing state and residual.
func (s detSubset[W]) normalize() detSubset[W] {
	slices.SortFunc(s, func(a, b detElement[W]) int {
		if c := cmp.Compare(a.state, b.state); c != 0 {
			return c
		}
		return slices.Compare(a.residual, b.residual)
	})
	out := s[:0]
	for _, e := range s {
		if n := len(out); n > 0 && out[n-1].state == e.state && slices.Equal(out[n-1].residual, e.residual) {
			out[n-1].weight = out[n-1].weight.Plus(e.weight)
			continue
		}
		out = append(out, e)
	}
	return out
}

// pending is an element advanced over one arc, before the new residual
// weight is known.
type pending[W semiring.Weight[W]] struct {
	next   StateID
	labels []Label
	weight W
}

// Determinize returns a transducer in which no state has two arcs sharing
// an input label, computing the same weighted relation as f when f is
// functional and determinizable. Each output state is a weighted subset of
// input states whose members carry residual output strings and residual
// weights. Output labels are emitted as soon as every member agrees on the
// next one; residual output left at final states is flushed through
// epsilon-input chains into a single super-final state.
//
// Input epsilons are treated as ordinary labels; remove epsilons first to
// obtain a deterministic automaton in the usual sense. Non-functional or
// non-twins input may not terminate unless opts.StateLimit is set.
func Determinize[W semiring.Weight[W]](f Fst[W], opts DeterminizeOptions) (*VectorFst[W], error) {
	out := NewVectorFst[W]()
	inits := f.Initials()
	if len(inits) == 0 {
		return out, nil
	}
	one := semiring.One[W]()
	zero := semiring.Zero[W]()

	total := zero
	for _, in := range inits {
		total = total.Plus(in.Weight)
	}
	start := make(detSubset[W], 0, len(inits))
	for _, in := range inits {
		start = append(start, detElement[W]{state: in.State, weight: in.Weight.LeftDivide(total)})
	}
	start = start.normalize()

	// Flush chains and the super-final state share the output numbering, so
	// each queued subset carries its own output id.
	type queued struct {
		id     StateID
		subset detSubset[W]
	}
	index := map[string]StateID{}
	var queue []queued
	add := func(s detSubset[W]) (StateID, error) {
		k := s.key()
		if id, ok := index[k]; ok {
			return id, nil
		}
		if opts.StateLimit > 0 && out.NumStates() >= opts.StateLimit {
			return NoState, ErrStateLimit
		}
		id := out.AddState()
		index[k] = id
		queue = append(queue, queued{id: id, subset: s})
		return id, nil
	}
	s0, err := add(start)
	if err != nil {
		return nil, err
	}
	out.SetInitial(s0, total)

	superFinal := NoState
	byLabel := map[Label][]pending[W]{}
	var labels []Label

	for i := 0; i < len(queue); i++ {
		id, subset := queue[i].id, queue[i].subset

		// Final weight and residual flush.
		final := zero
		var flush []Label
		bestCost := 0.0
		haveBest := false
		for _, e := range subset {
			fw := f.Final(e.state)
			if semiring.IsZero(fw) {
				continue
			}
			w := e.weight.Times(fw)
			final = final.Plus(w)
			if c := w.Cost(); !haveBest || c < bestCost {
				bestCost, haveBest, flush = c, true, e.residual
			}
		}
		if haveBest {
			if len(flush) == 0 {
				out.SetFinal(id, final)
			} else {
				if superFinal == NoState {
					superFinal = out.AddState()
					out.SetFinal(superFinal, one)
				}
				cur, w := id, final
				for j, l := range flush {
					next := superFinal
					if j < len(flush)-1 {
						next = out.AddState()
					}
					out.AddTransition(cur, next, Epsilon, l, w)
					cur, w = next, one
				}
			}
		}

		clear(byLabel)
		labels = labels[:0]
		for _, e := range subset {
			for a := range f.Arcs(e.state) {
				str := e.residual
				if a.OLabel != Epsilon {
					str = append(slices.Clip(e.residual), a.OLabel)
				}
				if _, ok := byLabel[a.ILabel]; !ok {
					labels = append(labels, a.ILabel)
				}
				byLabel[a.ILabel] = append(byLabel[a.ILabel], pending[W]{
					next:   a.NextState,
					labels: str,
					weight: e.weight.Times(a.Weight),
				})
			}
		}
		slices.Sort(labels)

		for _, in := range labels {
			moves := byLabel[in]
			w := zero
			for _, m := range moves {
				w = w.Plus(m.weight)
			}
			if semiring.IsZero(w) {
				continue
			}
			olabel := commonHead(moves)
			next := make(detSubset[W], 0, len(moves))
			for _, m := range moves {
				res := m.labels
				if olabel != Epsilon {
					res = res[1:]
				}
				next = append(next, detElement[W]{
					state:    m.next,
					residual: slices.Clone(res),
					weight:   m.weight.LeftDivide(w),
				})
			}
			to, err := add(next.normalize())
			if err != nil {
				Logger().Warn("determinization aborted",
					zap.Int("limit", opts.StateLimit))
				return nil, err
			}
			out.AddTransition(id, to, in, olabel, w)
		}
	}
	Logger().Debug("determinized",
		zap.Int("states_in", f.NumStates()),
		zap.Int("states_out", out.NumStates()))
	return out, nil
}

// commonHead returns the first label shared by every pending string, or
// epsilon when some string is empty or they disagree.
func commonHead[W semiring.Weight[W]](moves []pending[W]) Label {
	if len(moves[0].labels) == 0 {
		return Epsilon
	}
	head := moves[0].labels[0]
	for _, m := range moves[1:] {
		if len(m.labels) == 0 || m.labels[0] != head {
			return Epsilon
		}
	}
	return head
}
