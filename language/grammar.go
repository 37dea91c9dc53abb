package language

import (
	"go.uber.org/zap"

	"github.com/ieee0824/wfst-go/fst"
	"github.com/ieee0824/wfst-go/semiring"
	"github.com/ieee0824/wfst-go/symbols"
)

// Fst compiles the model into a grammar acceptor over word labels.
//
// Each listed history of order below Order becomes a state; the empty
// history is the back-off root. A word arc leaves its history for the
// longest listed suffix of the extended history. Back-off weights become
// epsilon arcs to the next shorter history and </s> probabilities become
// final weights. Weights are negated natural-log probabilities. Words
// missing from the table are added to it.
func (m *NGramModel) Fst(words *symbols.Table) *fst.VectorFst[semiring.Tropical] {
	g := fst.NewVectorFst[semiring.Tropical]()
	states := map[string]fst.StateID{"": g.AddState()}
	for order := 1; order < m.Order; order++ {
		for _, h := range m.NGrams(order) {
			if h[len(h)-1] == EOS {
				continue
			}
			states[key(h)] = g.AddState()
		}
	}

	// dest finds the state of the longest listed suffix of h.
	dest := func(h []string) fst.StateID {
		if n := m.Order - 1; len(h) > n {
			h = h[len(h)-n:]
		}
		for ; len(h) > 0; h = h[1:] {
			if s, ok := states[key(h)]; ok {
				return s
			}
		}
		return states[""]
	}

	for order := 1; order <= m.Order; order++ {
		for _, ng := range m.NGrams(order) {
			e, _ := m.Lookup(ng...)
			hist, w := ng[:order-1], ng[order-1]
			src, ok := states[key(hist)]
			if !ok || w == BOS {
				continue
			}
			cost := semiring.Tropical(-e.LogProb)
			if w == EOS {
				g.SetFinal(src, cost)
				continue
			}
			l := words.Add(w)
			g.AddTransition(src, dest(ng), l, l, cost)
		}
	}

	for order := 1; order < m.Order; order++ {
		for _, h := range m.NGrams(order) {
			src, ok := states[key(h)]
			if !ok {
				continue
			}
			e, _ := m.Lookup(h...)
			g.AddTransition(src, dest(h[1:]), fst.Epsilon, fst.Epsilon, semiring.Tropical(-e.LogBackoff))
		}
	}

	start := states[""]
	if s, ok := states[BOS]; ok {
		start = s
	}
	g.SetInitial(start, semiring.One[semiring.Tropical]())
	Logger().Debug("compiled grammar",
		zap.Int("order", m.Order),
		zap.Int("states", g.NumStates()),
		zap.Int("arcs", fst.NumArcsTotal[semiring.Tropical](g)))
	return g
}
