package fst

import (
	"go.uber.org/zap"

	"github.com/ieee0824/wfst-go/semiring"
)

type composeTuple struct {
	s1, s2 StateID
	fs     FilterState
}

// composer holds the state of one composition.
type composer[W semiring.Weight[W]] struct {
	f1, f2 Fst[W]
	filter ComposeFilter[W]
	out    *VectorFst[W]
	ids    map[composeTuple]StateID
	tuples []composeTuple
	// byInput indexes the arcs of f2 by input label, built on first visit.
	byInput []map[Label][]Arc[W]
}

// Compose returns the composition of f1 and f2: the paths whose f1 output
// string equals the f2 input string, with input labels from f1, output
// labels from f2 and the product of the weights. States are triples of an
// f1 state, an f2 state and a filter state, discovered breadth-first from the
// paired initial states. The filter decides how epsilon moves on either
// side combine; use SequenceFilter or MatchFilter unless both inputs are
// epsilon-free. The result is not trimmed.
func Compose[W semiring.Weight[W]](f1, f2 Fst[W], filter ComposeFilter[W]) *VectorFst[W] {
	c := &composer[W]{
		f1:      f1,
		f2:      f2,
		filter:  filter,
		out:     NewVectorFst[W](),
		ids:     map[composeTuple]StateID{},
		byInput: make([]map[Label][]Arc[W], f2.NumStates()),
	}
	start := filter.Start()
	for _, i1 := range f1.Initials() {
		for _, i2 := range f2.Initials() {
			s := c.state(composeTuple{i1.State, i2.State, start})
			c.out.SetInitial(s, c.out.InitialWeight(s).Plus(i1.Weight.Times(i2.Weight)))
		}
	}
	for s := 0; s < len(c.tuples); s++ {
		c.expand(s)
	}
	Logger().Debug("composed",
		zap.Int("states", c.out.NumStates()),
		zap.Int("arcs", NumArcsTotal[W](c.out)))
	return c.out
}

func (c *composer[W]) state(t composeTuple) StateID {
	if id, ok := c.ids[t]; ok {
		return id
	}
	id := c.out.AddState()
	c.ids[t] = id
	c.tuples = append(c.tuples, t)
	if fw := c.filter.Weight(t.fs); !semiring.IsZero(fw) {
		w := c.f1.Final(t.s1).Times(c.f2.Final(t.s2)).Times(fw)
		c.out.SetFinal(id, w)
	}
	return id
}

func (c *composer[W]) index(s StateID) map[Label][]Arc[W] {
	if m := c.byInput[s]; m != nil {
		return m
	}
	m := make(map[Label][]Arc[W], c.f2.NumArcs(s))
	for a := range c.f2.Arcs(s) {
		m[a.ILabel] = append(m[a.ILabel], a)
	}
	c.byInput[s] = m
	return m
}

func (c *composer[W]) expand(id StateID) {
	t := c.tuples[id]
	one := semiring.One[W]()
	loop1 := Arc[W]{ILabel: Epsilon, OLabel: NoLabel, Weight: one, NextState: t.s1}
	loop2 := Arc[W]{ILabel: NoLabel, OLabel: Epsilon, Weight: one, NextState: t.s2}
	arcs2 := c.index(t.s2)

	for a1 := range c.f1.Arcs(t.s1) {
		if a1.OLabel == Epsilon {
			c.add(id, t.fs, &a1, &loop2)
		}
		for _, a2 := range arcs2[a1.OLabel] {
			c.add(id, t.fs, &a1, &a2)
		}
	}
	for _, a2 := range arcs2[Epsilon] {
		c.add(id, t.fs, &loop1, &a2)
	}
}

func (c *composer[W]) add(src StateID, fs FilterState, a1, a2 *Arc[W]) {
	next := c.filter.Filter(fs, a1, a2)
	if c.filter.Blocking(next) {
		return
	}
	w := a1.Weight.Times(a2.Weight)
	if semiring.IsZero(w) {
		return
	}
	dst := c.state(composeTuple{a1.NextState, a2.NextState, next})
	c.out.AddArc(src, Arc[W]{ILabel: a1.ILabel, OLabel: a2.OLabel, Weight: w, NextState: dst})
}
