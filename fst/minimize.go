package fst

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/ieee0824/wfst-go/semiring"
)

// ErrNotDeterministic is returned by Minimize for input with duplicate
// input labels at a state or several initial states.
var ErrNotDeterministic = errors.New("fst: transducer is not deterministic")

type arcKey struct {
	in, out Label
	weight  string
}

type predArc struct {
	label int
	src   StateID
}

// Minimize merges equivalent states of a deterministic transducer. Two
// states are equivalent when they share final and initial weights and their
// futures match arc for arc, treating the (input, output, weight) triple as
// one label. Weights are compared exactly, so pushing weights first usually
// exposes more merges.
func Minimize[W semiring.Weight[W]](f Fst[W]) (*VectorFst[W], error) {
	if !IsDeterministic(f) {
		return nil, ErrNotDeterministic
	}
	n := f.NumStates()
	initial := make(map[StateID]W, 1)
	for _, in := range f.Initials() {
		initial[in.State] = in.Weight
	}

	// Intern composite labels and build the reverse graph.
	labelIDs := map[arcKey]int{}
	rev := make([][]predArc, n)
	for s := 0; s < n; s++ {
		for a := range f.Arcs(s) {
			k := arcKey{a.ILabel, a.OLabel, a.Weight.String()}
			id, ok := labelIDs[k]
			if !ok {
				id = len(labelIDs)
				labelIDs[k] = id
			}
			rev[a.NextState] = append(rev[a.NextState], predArc{label: id, src: s})
		}
	}

	p := newPartition(n)
	blockKeys := map[string]int{}
	for s := 0; s < n; s++ {
		k := f.Final(s).String() + "|"
		if w, ok := initial[s]; ok {
			k += w.String()
		}
		b, ok := blockKeys[k]
		if !ok {
			b = p.newBlock()
			blockKeys[k] = b
		}
		p.add(b, s)
	}
	for b := range p.members {
		p.enqueue(b)
	}

	preds := map[int][]StateID{}
	var order []int
	mark := make([]bool, n)
	for len(p.queue) > 0 {
		s := p.pop()
		clear(preds)
		order = order[:0]
		for _, t := range p.members[s] {
			for _, pa := range rev[t] {
				if _, ok := preds[pa.label]; !ok {
					order = append(order, pa.label)
				}
				preds[pa.label] = append(preds[pa.label], pa.src)
			}
		}
		slices.Sort(order)
		for _, l := range order {
			p.split(preds[l], mark)
		}
	}

	// One output state per block, numbered by smallest member.
	reps := make([]StateID, len(p.members))
	for b, m := range p.members {
		reps[b] = slices.Min(m)
	}
	blocks := make([]int, len(p.members))
	for b := range blocks {
		blocks[b] = b
	}
	slices.SortFunc(blocks, func(a, b int) int { return reps[a] - reps[b] })
	newID := make([]StateID, len(p.members))
	for i, b := range blocks {
		newID[b] = i
	}

	out := NewVectorFst[W]()
	out.AddStates(len(blocks))
	for _, b := range blocks {
		rep := reps[b]
		q := newID[b]
		fw := f.Final(rep)
		for _, m := range p.members[b] {
			if !f.Final(m).Equal(fw) {
				panic(fmt.Sprintf("fst: minimize: state %d and %d share a block with different final weights", m, rep))
			}
		}
		out.SetFinal(q, fw)
		for a := range f.Arcs(rep) {
			a.NextState = newID[p.blockOf[a.NextState]]
			out.AddArc(q, a)
		}
	}
	for _, in := range f.Initials() {
		out.SetInitial(newID[p.blockOf[in.State]], in.Weight)
	}
	Logger().Debug("minimized",
		zap.Int("states_in", n),
		zap.Int("states_out", out.NumStates()),
		zap.Int("labels", len(labelIDs)))
	return out, nil
}

// partition is the block structure refined by Hopcroft's algorithm.
type partition struct {
	members [][]StateID
	blockOf []int
	queued  []bool
	queue   []int
}

func newPartition(n int) *partition {
	return &partition{blockOf: make([]int, n)}
}

func (p *partition) newBlock() int {
	p.members = append(p.members, nil)
	p.queued = append(p.queued, false)
	return len(p.members) - 1
}

func (p *partition) add(b int, s StateID) {
	p.members[b] = append(p.members[b], s)
	p.blockOf[s] = b
}

func (p *partition) enqueue(b int) {
	if !p.queued[b] {
		p.queued[b] = true
		p.queue = append(p.queue, b)
	}
}

func (p *partition) pop() int {
	b := p.queue[0]
	p.queue = p.queue[1:]
	p.queued[b] = false
	return b
}

// split separates the states in r from the rest of every block they touch.
// The new block holds the states of r. It is queued when its parent was,
// otherwise the smaller half is queued.
func (p *partition) split(r []StateID, mark []bool) {
	var touched []int
	hits := map[int]int{}
	for _, s := range r {
		if mark[s] {
			continue
		}
		mark[s] = true
		b := p.blockOf[s]
		if hits[b] == 0 {
			touched = append(touched, b)
		}
		hits[b]++
	}
	for _, b := range touched {
		if hits[b] == len(p.members[b]) {
			continue
		}
		nb := p.newBlock()
		rest := p.members[b][:0:0]
		for _, s := range p.members[b] {
			if mark[s] {
				p.add(nb, s)
			} else {
				rest = append(rest, s)
			}
		}
		p.members[b] = rest
		if p.queued[b] || len(p.members[nb]) <= len(rest) {
			p.enqueue(nb)
		}
		if p.queued[b] || len(rest) < len(p.members[nb]) {
			p.enqueue(b)
		}
	}
	for _, s := range r {
		mark[s] = false
	}
}
