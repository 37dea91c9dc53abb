package decoder

import (
	"math/rand/v2"
	"testing"

	"github.com/ieee0824/wfst-go/fst"
	"github.com/ieee0824/wfst-go/internal/mathutil"
)

// loopGraph is a phone loop over n labels with one state per label.
func loopGraph(n int) *fst.VectorFst[trop] {
	g := fst.NewVectorFst[trop]()
	g.AddStates(n + 1)
	g.SetInitial(0, 0)
	for l := 1; l <= n; l++ {
		g.AddTransition(0, l, fst.Label(l), fst.Label(l), 1)
		g.AddTransition(l, l, fst.Label(l), 0, 0.1)
		g.AddTransition(l, 0, 0, 0, 0)
		g.SetFinal(l, 0)
	}
	return g
}

func randomLogLikes(frames, labels int) mathutil.Mat {
	r := rand.New(rand.NewPCG(1, 2))
	m := mathutil.NewMat(frames, labels)
	for i := range m {
		for j := range m[i] {
			m[i][j] = -10 * r.Float64()
		}
	}
	return m
}

func BenchmarkSearch(b *testing.B) {
	const labels, frames = 40, 300
	g := loopGraph(labels)
	scorer := NewMatrixScorer(randomLogLikes(frames, labels))
	cfg := DefaultConfig()
	cfg.BeamWidth = 8
	d, err := New(g, cfg)
	if err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		if !d.Search(nil, frames, scorer) {
			b.Fatal("search failed")
		}
	}
}
