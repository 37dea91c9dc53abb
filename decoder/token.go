package decoder

import (
	"github.com/ieee0824/wfst-go/fst"
	"github.com/ieee0824/wfst-go/semiring"
)

// token is one hypothesis: the arc that produced it, the weight of that
// step (arc weight times acoustic weight), the accumulated path weight and
// the token it extends. Tokens form a tree through prev; refs counts the
// active-list entries and child tokens pointing at a token.
type token[W semiring.Weight[W]] struct {
	frame  int
	arc    fst.Arc[W]
	hasArc bool
	step   W
	weight W
	cost   float64
	prev   *token[W]
	refs   int32
}

// tokenPool recycles tokens released by pruning.
type tokenPool[W semiring.Weight[W]] struct {
	free []*token[W]
	live int
}

func (p *tokenPool[W]) get() *token[W] {
	p.live++
	if n := len(p.free); n > 0 {
		t := p.free[n-1]
		p.free = p.free[:n-1]
		return t
	}
	return &token[W]{}
}

// extend returns a new token holding one reference, which points at prev
// and takes a reference on it.
func (p *tokenPool[W]) extend(prev *token[W], frame int, arc *fst.Arc[W], step, weight W) *token[W] {
	t := p.get()
	t.frame = frame
	t.hasArc = arc != nil
	if arc != nil {
		t.arc = *arc
	}
	t.step = step
	t.weight = weight
	t.cost = weight.Cost()
	t.prev = prev
	t.refs = 1
	if prev != nil {
		prev.refs++
	}
	return t
}

// release drops one reference to t. Tokens whose count reaches zero return
// to the pool and release their predecessor in turn; the walk is a loop so
// chains as long as the utterance never grow the call stack.
func (p *tokenPool[W]) release(t *token[W]) {
	for t != nil {
		t.refs--
		if t.refs > 0 {
			return
		}
		prev := t.prev
		*t = token[W]{}
		p.free = append(p.free, t)
		p.live--
		t = prev
	}
}

// activeList maps states to their best token, remembering insertion order
// so that expansion and tie-breaking never depend on map iteration.
type activeList[W semiring.Weight[W]] struct {
	index  map[fst.StateID]int
	states []fst.StateID
	toks   []*token[W]
}

func newActiveList[W semiring.Weight[W]]() *activeList[W] {
	return &activeList[W]{index: map[fst.StateID]int{}}
}

func (l *activeList[W]) len() int { return len(l.states) }

func (l *activeList[W]) get(s fst.StateID) *token[W] {
	if i, ok := l.index[s]; ok {
		return l.toks[i]
	}
	return nil
}

// merge offers tok for state s. The list keeps the better of tok and the
// current holder, releasing the loser; ties keep the current holder.
// It reports whether tok was kept.
func (l *activeList[W]) merge(pool *tokenPool[W], s fst.StateID, tok *token[W]) bool {
	i, ok := l.index[s]
	if !ok {
		l.index[s] = len(l.states)
		l.states = append(l.states, s)
		l.toks = append(l.toks, tok)
		return true
	}
	if tok.cost < l.toks[i].cost {
		pool.release(l.toks[i])
		l.toks[i] = tok
		return true
	}
	pool.release(tok)
	return false
}

// clear releases every token and empties the list.
func (l *activeList[W]) clear(pool *tokenPool[W]) {
	for _, t := range l.toks {
		pool.release(t)
	}
	clear(l.index)
	clear(l.toks)
	l.states = l.states[:0]
	l.toks = l.toks[:0]
}

// keep retains the entries whose indices are set in mask, preserving order,
// and releases the rest.
func (l *activeList[W]) keep(pool *tokenPool[W], mask []bool) {
	clear(l.index)
	n := 0
	for i, s := range l.states {
		if !mask[i] {
			pool.release(l.toks[i])
			continue
		}
		l.states[n] = s
		l.toks[n] = l.toks[i]
		l.index[s] = n
		n++
	}
	clear(l.toks[n:])
	l.states = l.states[:n]
	l.toks = l.toks[:n]
}
