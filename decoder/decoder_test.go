package decoder

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ieee0824/wfst-go/fst"
	"github.com/ieee0824/wfst-go/internal/mathutil"
	"github.com/ieee0824/wfst-go/semiring"
)

type trop = semiring.Tropical

const (
	wordA fst.Label = 100
	wordB fst.Label = 200
)

// twoWordGraph accepts label 1 repeated (word A) or label 2 repeated
// (word B), each followed by an epsilon arc into the shared final state.
func twoWordGraph() *fst.VectorFst[trop] {
	g := fst.NewVectorFst[trop]()
	g.AddStates(4)
	g.SetInitial(0, 0)
	g.AddTransition(0, 1, 1, wordA, 0)
	g.AddTransition(1, 1, 1, 0, 0)
	g.AddTransition(1, 3, 0, 0, 0)
	g.AddTransition(0, 2, 2, wordB, 0)
	g.AddTransition(2, 2, 2, 0, 0)
	g.AddTransition(2, 3, 0, 0, 0)
	g.SetFinal(3, 0)
	return g
}

func favorLabel1() *MatrixScorer {
	return NewMatrixScorer(mathutil.Mat{
		{-0.1, -2},
		{-0.1, -2},
		{-0.2, -3},
	})
}

func zeroScorer() Scorer {
	return ScorerFunc(func(fst.Label, int, []float64) float64 { return 0 })
}

func newDecoder(t *testing.T, g fst.Fst[trop], cfg Config, opts ...Option) *Decoder[trop] {
	t.Helper()
	d, err := New(g, cfg, opts...)
	require.NoError(t, err)
	return d
}

func TestSearchPicksBestWord(t *testing.T) {
	d := newDecoder(t, twoWordGraph(), DefaultConfig())

	require.True(t, d.Search(nil, 3, favorLabel1()))

	assert.Equal(t, []fst.Label{wordA}, d.BestPath())
	assert.Equal(t, []fst.Label{1, 1, 1}, d.Alignment())
	assert.InDelta(t, 0.4, float64(d.TotalWeight()), 1e-9)
	assert.Equal(t, 3, d.NumFramesDecoded())
}

func TestSearchIsDeterministic(t *testing.T) {
	g := twoWordGraph()
	d1 := newDecoder(t, g, DefaultConfig())
	d2 := newDecoder(t, g, DefaultConfig())

	require.True(t, d1.Search(nil, 3, favorLabel1()))
	require.True(t, d2.Search(nil, 3, favorLabel1()))
	assert.Equal(t, d1.BestPath(), d2.BestPath())
	assert.Equal(t, d1.TotalWeight(), d2.TotalWeight())

	first := d1.TotalWeight()
	require.True(t, d1.Search(nil, 3, favorLabel1()))
	assert.Equal(t, first, d1.TotalWeight())
}

func TestSearchFailsWithoutFinalState(t *testing.T) {
	g := fst.NewVectorFst[trop]()
	g.AddStates(3)
	g.SetInitial(0, 0)
	g.AddTransition(0, 1, 1, 1, 0)
	g.AddTransition(1, 2, 1, 1, 0)
	g.SetFinal(2, 0)
	d := newDecoder(t, g, DefaultConfig())

	assert.False(t, d.Search(nil, 1, zeroScorer()))
	assert.True(t, semiring.IsZero(d.TotalWeight()))
	assert.Empty(t, d.BestPath())
	_, err := d.BestPathFst()
	assert.ErrorIs(t, err, ErrNoPath)

	// Running out of arcs before the last frame also fails.
	assert.False(t, d.Search(nil, 3, zeroScorer()))
	assert.Equal(t, 2, d.NumFramesDecoded())

	assert.True(t, d.Search(nil, 2, zeroScorer()))
}

// trapGraph has a cheap dead end and an expensive path to the final state.
func trapGraph() *fst.VectorFst[trop] {
	g := fst.NewVectorFst[trop]()
	g.AddStates(3)
	g.SetInitial(0, 0)
	g.AddTransition(0, 1, 1, 1, 0)
	g.AddTransition(1, 1, 1, 1, 0)
	g.AddTransition(0, 2, 2, 2, 5)
	g.AddTransition(2, 2, 2, 2, 0)
	g.SetFinal(2, 0)
	return g
}

func TestBeamMonotonicity(t *testing.T) {
	found := false
	for _, beam := range []float64{0.5, 1, 2, 4, 8, 16, 32} {
		cfg := Config{BeamWidth: beam, MaxActive: 100, MinActive: 0}
		d := newDecoder(t, trapGraph(), cfg)
		ok := d.Search(nil, 4, zeroScorer())
		if found {
			assert.True(t, ok, "beam %v lost a path a narrower beam found", beam)
		}
		found = found || ok
		if ok {
			assert.Equal(t, trop(5), d.TotalWeight())
		}
	}
	assert.True(t, found)

	narrow := newDecoder(t, trapGraph(), Config{BeamWidth: 1, MaxActive: 100})
	assert.False(t, narrow.Search(nil, 4, zeroScorer()))
}

func TestMinActiveKeepsTokens(t *testing.T) {
	d := newDecoder(t, trapGraph(), Config{BeamWidth: 1, MaxActive: 100, MinActive: 2})
	assert.True(t, d.Search(nil, 4, zeroScorer()))
	assert.Equal(t, []fst.Label{2, 2, 2, 2}, d.BestPath())
}

func TestMinActiveKeepsTokensAcrossEpsilon(t *testing.T) {
	g := trapGraph()
	// The expensive branch now reaches its loop through an epsilon arc.
	g.DeleteArcs(2)
	g.SetFinal(2, semiring.Zero[trop]())
	s := g.AddState()
	g.AddTransition(2, s, 0, 0, 0)
	g.AddTransition(s, s, 2, 2, 0)
	g.SetFinal(s, 0)

	d := newDecoder(t, g, Config{BeamWidth: 1, MaxActive: 100, MinActive: 2})
	require.True(t, d.Search(nil, 4, zeroScorer()))
	assert.Equal(t, []fst.Label{2, 2, 2, 2}, d.BestPath())
	assert.Equal(t, trop(5), d.TotalWeight())

	narrow := newDecoder(t, g, Config{BeamWidth: 1, MaxActive: 100})
	assert.False(t, narrow.Search(nil, 4, zeroScorer()))
}

func TestMatrixScorerOutOfRange(t *testing.T) {
	m := favorLabel1()
	assert.InDelta(t, 0.1, m.Score(1, 0, nil), 1e-12)
	assert.True(t, math.IsInf(m.Score(3, 0, nil), 1))
	assert.True(t, math.IsInf(m.Score(0, 0, nil), 1))
	assert.True(t, math.IsInf(m.Score(1, 3, nil), 1))
	assert.True(t, math.IsInf(m.Score(1, -1, nil), 1))

	// More frames than rows: the extra frames reject every arc.
	d := newDecoder(t, twoWordGraph(), DefaultConfig())
	assert.False(t, d.Search(nil, 5, m))
	assert.Equal(t, 3, d.NumFramesDecoded())
}

func TestMaxActiveCapsTokens(t *testing.T) {
	d := newDecoder(t, trapGraph(), Config{BeamWidth: 100, MaxActive: 1})
	assert.False(t, d.Search(nil, 4, zeroScorer()))
}

func TestEpsilonOutputsAndInitialWeights(t *testing.T) {
	g := fst.NewVectorFst[trop]()
	g.AddStates(4)
	g.SetInitial(0, 3)
	g.SetInitial(1, 0)
	g.AddTransition(0, 3, 1, 7, 0)
	g.AddTransition(1, 2, 0, 8, 0.5)
	g.AddTransition(2, 3, 1, 0, 0)
	g.SetFinal(3, 0.25)
	d := newDecoder(t, g, DefaultConfig())

	require.True(t, d.Search(nil, 1, zeroScorer()))

	assert.Equal(t, []fst.Label{8}, d.BestPath())
	assert.Equal(t, []fst.Label{1}, d.Alignment())
	assert.Equal(t, trop(0.75), d.TotalWeight())

	path, err := d.BestPathFst()
	require.NoError(t, err)
	assert.Equal(t, 3, path.NumStates())
	assert.Equal(t, d.TotalWeight(), fst.PathSum[trop](path))
}

func TestSearchUsesFeatures(t *testing.T) {
	feats := [][]float64{{0}, {10}}
	var calls int
	scorer := ScorerFunc(func(l fst.Label, frame int, f []float64) float64 {
		calls++
		return math.Abs(f[0] - float64(l-1)*10)
	})
	d := newDecoder(t, twoWordGraph(), DefaultConfig())

	require.True(t, d.Search(feats, 2, scorer))

	// Frame 0 favours label 1, frame 1 favours label 2; a word cannot
	// switch labels, so both cost 10.
	assert.Equal(t, trop(10), d.TotalWeight())
	assert.Equal(t, []fst.Label{wordA}, d.BestPath())
	// Each label is scored once per frame.
	assert.Equal(t, 4, calls)
}

func TestLongUtteranceReleasesIteratively(t *testing.T) {
	g := fst.NewVectorFst[trop]()
	g.AddStates(1)
	g.SetInitial(0, 0)
	g.AddTransition(0, 0, 1, 1, 0)
	g.SetFinal(0, 0)
	d := newDecoder(t, g, DefaultConfig())

	const frames = 50000
	require.True(t, d.Search(nil, frames, zeroScorer()))
	assert.Len(t, d.Alignment(), frames)
	assert.Equal(t, frames+1, d.pool.live)

	require.True(t, d.Search(nil, 1, zeroScorer()))
	assert.Equal(t, 2, d.pool.live)
}

func TestConstGraph(t *testing.T) {
	c, err := fst.Freeze[trop](twoWordGraph(),
		func(w trop) float32 { return float32(w) },
		func(v float32) trop { return trop(v) })
	require.NoError(t, err)
	d := newDecoder(t, c, DefaultConfig())

	require.True(t, d.Search(nil, 3, favorLabel1()))
	assert.Equal(t, []fst.Label{wordA}, d.BestPath())
}

func TestLatticeWeights(t *testing.T) {
	g := fst.NewVectorFst[semiring.Lattice]()
	g.AddStates(2)
	g.SetInitial(0, semiring.Lattice{})
	g.AddTransition(0, 1, 1, 5, semiring.Lattice{Graph: 1})
	g.AddTransition(0, 1, 2, 6, semiring.Lattice{Graph: 2})
	g.SetFinal(1, semiring.Lattice{})
	d, err := New(g, DefaultConfig())
	require.NoError(t, err)

	scorer := ScorerFunc(func(l fst.Label, _ int, _ []float64) float64 { return 4 - 2*float64(l) })
	require.True(t, d.Search(nil, 1, scorer))

	assert.Equal(t, []fst.Label{6}, d.BestPath())
	assert.Equal(t, semiring.Lattice{Graph: 2, Acoustic: 0}, d.TotalWeight())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	d := newDecoder(t, twoWordGraph(), DefaultConfig(), WithMetrics(m))

	require.True(t, d.Search(nil, 3, favorLabel1()))
	require.False(t, d.Search(nil, 0, favorLabel1()))

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		metric := mf.GetMetric()[0]
		switch {
		case metric.GetCounter() != nil:
			values[mf.GetName()] = metric.GetCounter().GetValue()
		case metric.GetHistogram() != nil:
			values[mf.GetName()] = float64(metric.GetHistogram().GetSampleCount())
		}
	}
	assert.Equal(t, 2.0, values["wfst_decoder_searches_total"])
	assert.Equal(t, 1.0, values["wfst_decoder_failures_total"])
	assert.Equal(t, 3.0, values["wfst_decoder_frames_total"])
	assert.Equal(t, 3.0, values["wfst_decoder_active_tokens"])
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New[trop](twoWordGraph(), Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
