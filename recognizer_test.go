package wfst

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ieee0824/wfst-go/decoder"
	"github.com/ieee0824/wfst-go/fst"
	"github.com/ieee0824/wfst-go/fstio"
	"github.com/ieee0824/wfst-go/internal/mathutil"
	"github.com/ieee0824/wfst-go/language"
	"github.com/ieee0824/wfst-go/lexicon"
	"github.com/ieee0824/wfst-go/semiring"
)

type trop = semiring.Tropical

const testARPA = `\data\
ngram 1=4
ngram 2=3

\1-grams:
-1.0	</s>
-1.0	<s>	-0.5
-0.5	東京
-0.7	タワー	-0.3

\2-grams:
-0.3	<s>	東京
-0.4	東京	タワー
-0.2	タワー	</s>

\end\
`

const testDict = `東京	トウキョウ	t o u
タワー	タワー	t a
`

func compileTestGraph(t *testing.T) (*Graph, *language.NGramModel) {
	t.Helper()
	lm, err := language.LoadARPA(strings.NewReader(testARPA))
	require.NoError(t, err)
	dict, err := lexicon.Load(strings.NewReader(testDict))
	require.NoError(t, err)
	g, err := CompileGraph(dict, lm)
	require.NoError(t, err)
	return g, lm
}

// sharpScorer gives log-likelihood 0 to the listed phone of each frame and
// -5 to every other phone.
func sharpScorer(t *testing.T, g *Graph, phones ...string) *decoder.MatrixScorer {
	t.Helper()
	m := mathutil.NewMat(len(phones), g.Phones.Len()-1)
	for i, p := range phones {
		l, ok := g.Phones.Find(p)
		require.True(t, ok, p)
		for j := range m[i] {
			m[i][j] = -5
		}
		m[i][l-1] = 0
	}
	return decoder.NewMatrixScorer(m)
}

func TestRecognizeLexiconGrammar(t *testing.T) {
	g, lm := compileTestGraph(t)
	r, err := NewRecognizer[trop](g.Fst, WithOutputSymbols(g.Words))
	require.NoError(t, err)

	input := []string{"t", "o", "u", "t", "a"}
	res, err := r.Recognize(nil, len(input), sharpScorer(t, g, input...))
	require.NoError(t, err)

	assert.Equal(t, []string{"東京", "タワー"}, res.Words)
	assert.Len(t, res.Alignment, len(input))
	assert.Equal(t, len(input), res.Frames)
	assert.Zero(t, res.Retries)
	assert.InDelta(t, -lm.SentenceLogProb([]string{"東京", "タワー"}), res.Cost(), 1e-9)
}

func TestRecognizeBackoffSentence(t *testing.T) {
	g, lm := compileTestGraph(t)
	r, err := NewRecognizer[trop](g.Fst, WithOutputSymbols(g.Words))
	require.NoError(t, err)

	input := []string{"t", "a", "t", "o", "u"}
	res, err := r.Recognize(nil, len(input), sharpScorer(t, g, input...))
	require.NoError(t, err)

	assert.Equal(t, []string{"タワー", "東京"}, res.Words)
	assert.InDelta(t, 3.0*math.Ln10, res.Cost(), 1e-9)
	assert.InDelta(t, -lm.SentenceLogProb(res.Words), res.Cost(), 1e-9)
}

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

func zeroScorer() decoder.Scorer {
	return decoder.ScorerFunc(func(fst.Label, int, []float64) float64 { return 0 })
}

func TestRecognizeWidensBeam(t *testing.T) {
	narrow := decoder.Config{BeamWidth: 1, MaxActive: 100}

	r, err := NewRecognizer[trop](trapGraph(), WithDecoderConfig(narrow), WithMaxRetries(3))
	require.NoError(t, err)
	res, err := r.Recognize(nil, 4, zeroScorer())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Retries)
	assert.Equal(t, 8.0, res.Beam)
	assert.Equal(t, []fst.Label{2, 2, 2, 2}, res.Labels)
	assert.Nil(t, res.Words)

	r, err = NewRecognizer[trop](trapGraph(), WithDecoderConfig(narrow))
	require.NoError(t, err)
	_, err = r.Recognize(nil, 4, zeroScorer())
	assert.ErrorIs(t, err, ErrNoFinalState)
}

func TestNewRecognizerValidates(t *testing.T) {
	_, err := NewRecognizer[trop](trapGraph(), WithDecoderConfig(decoder.Config{}))
	assert.ErrorIs(t, err, decoder.ErrInvalidConfig)

	_, err = NewRecognizer[trop](trapGraph(), WithMaxRetries(-1))
	assert.Error(t, err)
}

func TestLoadGraph(t *testing.T) {
	g, _ := compileTestGraph(t)
	dir := t.TempDir()
	input := []string{"t", "o", "u", "t", "a"}
	scorer := sharpScorer(t, g, input...)

	want, err := NewRecognizer[trop](g.Fst)
	require.NoError(t, err)
	wantRes, err := want.Recognize(nil, len(input), scorer)
	require.NoError(t, err)

	for _, tc := range []struct {
		name   string
		format fstio.Format
	}{
		{"graph.fst", fstio.FormatConst},
		{"graph.fst.xz", fstio.FormatVector},
		{"graph.const.xz", fstio.FormatConst},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name)
			require.NoError(t, fstio.WriteFile[trop](path, g.Fst, fstio.Tropical, tc.format))

			loaded, closer, err := LoadGraph(path)
			require.NoError(t, err)
			defer closer.Close()

			r, err := NewRecognizer(loaded)
			require.NoError(t, err)
			res, err := r.Recognize(nil, len(input), scorer)
			require.NoError(t, err)
			assert.Equal(t, wantRes.Labels, res.Labels)
			assert.InDelta(t, wantRes.Cost(), res.Cost(), 1e-4)
		})
	}

	_, _, err = LoadGraph(filepath.Join(dir, "missing.fst"))
	assert.Error(t, err)
}

func TestRecognizeConcurrently(t *testing.T) {
	g, _ := compileTestGraph(t)
	r, err := NewRecognizer[trop](g.Fst, WithOutputSymbols(g.Words))
	require.NoError(t, err)
	input := []string{"t", "o", "u", "t", "a"}
	scorer := sharpScorer(t, g, input...)

	var eg errgroup.Group
	results := make([][]string, 8)
	for i := range results {
		eg.Go(func() error {
			res, err := r.Recognize(nil, len(input), scorer)
			if err != nil {
				return err
			}
			results[i] = res.Words
			return nil
		})
	}
	require.NoError(t, eg.Wait())
	for _, words := range results {
		assert.Equal(t, []string{"東京", "タワー"}, words)
	}
}

func TestErrorRate(t *testing.T) {
	tests := []struct {
		ref, hyp string
		edits    int
		rate     float64
	}{
		{"a b c", "a b c", 0, 0},
		{"a b c", "a x c", 1, 1.0 / 3},
		{"a b c", "a c", 1, 1.0 / 3},
		{"a b", "a b c d", 2, 1},
		{"", "", 0, 0},
		{"", "a", 1, 1},
	}
	for _, tt := range tests {
		edits, rate := ErrorRate(strings.Fields(tt.ref), strings.Fields(tt.hyp))
		assert.Equal(t, tt.edits, edits, "%q vs %q", tt.ref, tt.hyp)
		assert.InDelta(t, tt.rate, rate, 1e-12)
	}
	assert.Equal(t, 3, EditDistance([]rune("kitten"), []rune("sitting")))
}
