package acoustic

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ieee0824/wfst-go/decoder"
	"github.com/ieee0824/wfst-go/fst"
	"github.com/ieee0824/wfst-go/semiring"
	"github.com/ieee0824/wfst-go/symbols"
)

func standardNormal(t *testing.T) *GMM {
	t.Helper()
	g, err := NewGMM([]Gaussian{{Mean: []float64{0}, Variance: []float64{1}}})
	require.NoError(t, err)
	return g
}

func TestGaussianLogProb(t *testing.T) {
	g := standardNormal(t)

	// Standard normal at x=0: log(1/sqrt(2π)) ≈ -0.9189
	assert.InDelta(t, -0.5*math.Log(2*math.Pi), g.LogProb([]float64{0}), 1e-9)
	assert.Greater(t, g.LogProb([]float64{0}), g.LogProb([]float64{5}))
}

func TestGMMMixture(t *testing.T) {
	half := math.Log(0.5)
	g, err := NewGMM([]Gaussian{
		{Mean: []float64{-2, 0}, Variance: []float64{1, 2}, LogWeight: half},
		{Mean: []float64{2, 0}, Variance: []float64{1, 2}, LogWeight: half},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, g.Dim)

	// Symmetric mixture.
	assert.InDelta(t, g.LogProb([]float64{-1, 0.5}), g.LogProb([]float64{1, 0.5}), 1e-12)

	x := []float64{0.3, -0.7}
	want := math.Log(0.5*density(x, []float64{-2, 0}, []float64{1, 2}) +
		0.5*density(x, []float64{2, 0}, []float64{1, 2}))
	assert.InDelta(t, want, g.LogProb(x), 1e-9)

	xs := [][]float64{{0, 0}, x, {4, 1}}
	dst := make([]float64, len(xs))
	g.LogProbBatch(xs, dst)
	for i, x := range xs {
		assert.Equal(t, g.LogProb(x), dst[i])
	}
}

func density(x, mean, variance []float64) float64 {
	p := 1.0
	for i := range x {
		d := x[i] - mean[i]
		p *= math.Exp(-d*d/(2*variance[i])) / math.Sqrt(2*math.Pi*variance[i])
	}
	return p
}

func TestNewGMMErrors(t *testing.T) {
	_, err := NewGMM(nil)
	assert.Error(t, err)

	_, err = NewGMM([]Gaussian{{Mean: []float64{0, 1}, Variance: []float64{1}}})
	assert.ErrorContains(t, err, "dimension")

	_, err = NewGMM([]Gaussian{{Mean: []float64{0}, Variance: []float64{0}}})
	assert.ErrorContains(t, err, "variance")
}

const modelYAML = `dim: 1
states:
  - label: a
    components:
      - mean: [-1]
        variance: [0.5]
  - label: b
    components:
      - weight: 0.25
        mean: [1]
        variance: [0.5]
      - weight: 0.75
        mean: [3]
        variance: [1]
`

func phoneTable() *symbols.Table {
	tab := symbols.New()
	tab.Add("a")
	tab.Add("b")
	return tab
}

func TestLoadModel(t *testing.T) {
	phones := phoneTable()
	m, err := Load(strings.NewReader(modelYAML), phones)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Dim)
	assert.Equal(t, []fst.Label{1, 2}, m.Labels())

	b, ok := m.GMM(2)
	require.True(t, ok)
	require.Len(t, b.Components, 2)
	assert.InDelta(t, math.Log(0.25), b.Components[0].LogWeight, 1e-12)

	assert.Less(t, m.Score(1, 0, []float64{-1}), m.Score(2, 0, []float64{-1}))
	assert.True(t, math.IsInf(m.Score(3, 0, []float64{0}), 1))
	assert.True(t, math.IsInf(m.Score(1, 0, []float64{0, 0}), 1))

	m.Scale = 0.5
	a, _ := m.GMM(1)
	assert.InDelta(t, -0.5*a.LogProb([]float64{0.2}), m.Score(1, 7, []float64{0.2}), 1e-12)

	var buf bytes.Buffer
	require.NoError(t, m.Write(&buf, phones))
	again, err := Load(&buf, phones)
	require.NoError(t, err)
	for _, x := range []float64{-2, 0, 2.5} {
		assert.InDelta(t, 2*m.Score(2, 0, []float64{x}), again.Score(2, 0, []float64{x}), 1e-9)
	}
}

func TestLoadModelErrors(t *testing.T) {
	tests := map[string]string{
		"unknown label": "dim: 1\nstates:\n  - label: z\n    components:\n      - {mean: [0], variance: [1]}\n",
		"zero dim":      "dim: 0\nstates: []\n",
		"bad dim":       "dim: 2\nstates:\n  - label: a\n    components:\n      - {mean: [0], variance: [1]}\n",
		"duplicate":     "dim: 1\nstates:\n  - label: a\n    components:\n      - {mean: [0], variance: [1]}\n  - label: a\n    components:\n      - {mean: [0], variance: [1]}\n",
		"negative":      "dim: 1\nstates:\n  - label: a\n    components:\n      - {weight: -1, mean: [0], variance: [1]}\n",
		"unknown field": "dim: 1\nbeam: 3\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(src), phoneTable())
			assert.Error(t, err)
		})
	}
}

func TestLoadNumericLabels(t *testing.T) {
	src := "dim: 1\nstates:\n  - label: \"4\"\n    components:\n      - {mean: [0], variance: [1]}\n"
	m, err := Load(strings.NewReader(src), nil)
	require.NoError(t, err)
	assert.Equal(t, []fst.Label{4}, m.Labels())

	_, err = Load(strings.NewReader(strings.Replace(src, `"4"`, `"0"`, 1)), nil)
	assert.ErrorContains(t, err, "invalid label")
}

func TestModelDrivesDecoder(t *testing.T) {
	m, err := Load(strings.NewReader(modelYAML), phoneTable())
	require.NoError(t, err)

	// Label 1 ("a") emits word 10, label 2 ("b") emits word 20; either
	// repeats until the final epsilon arc.
	g := fst.NewVectorFst[semiring.Tropical]()
	g.AddStates(4)
	g.SetInitial(0, 0)
	g.AddTransition(0, 1, 1, 10, 0)
	g.AddTransition(1, 1, 1, 0, 0)
	g.AddTransition(1, 3, 0, 0, 0)
	g.AddTransition(0, 2, 2, 20, 0)
	g.AddTransition(2, 2, 2, 0, 0)
	g.AddTransition(2, 3, 0, 0, 0)
	g.SetFinal(3, 0)

	d, err := decoder.New[semiring.Tropical](g, decoder.DefaultConfig())
	require.NoError(t, err)

	low := [][]float64{{-1.1}, {-0.8}, {-1.3}}
	require.True(t, d.Search(low, len(low), m))
	assert.Equal(t, []fst.Label{10}, d.BestPath())

	high := [][]float64{{2.8}, {3.1}}
	require.True(t, d.Search(high, len(high), m))
	assert.Equal(t, []fst.Label{20}, d.BestPath())
	assert.Equal(t, []fst.Label{2, 2}, d.Alignment())
}
