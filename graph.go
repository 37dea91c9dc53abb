package wfst

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/ieee0824/wfst-go/fst"
	"github.com/ieee0824/wfst-go/fstio"
	"github.com/ieee0824/wfst-go/language"
	"github.com/ieee0824/wfst-go/lexicon"
	"github.com/ieee0824/wfst-go/semiring"
	"github.com/ieee0824/wfst-go/symbols"
)

// Graph is a compiled decoding graph with its symbol tables. Input labels
// are phones, output labels are words.
type Graph struct {
	Fst    *fst.VectorFst[semiring.Tropical]
	Phones *symbols.Table
	Words  *symbols.Table
}

// CompileGraph composes the lexicon transducer of dict with the grammar of
// lm and trims the result.
func CompileGraph(dict *lexicon.Dictionary, lm *language.NGramModel) (*Graph, error) {
	phones, words := symbols.New(), symbols.New()
	l, err := dict.Fst(phones, words)
	if err != nil {
		return nil, fmt.Errorf("compile lexicon: %w", err)
	}
	g := lm.Fst(words)
	lg := fst.Connect[semiring.Tropical](fst.Compose[semiring.Tropical](l, g, fst.SequenceFilter[semiring.Tropical]{}))
	if lg.NumStates() == 0 {
		return nil, fmt.Errorf("wfst: lexicon and grammar share no sentence")
	}
	Logger().Info("compiled graph",
		zap.Int("lexicon_states", l.NumStates()),
		zap.Int("grammar_states", g.NumStates()),
		zap.Int("states", lg.NumStates()),
		zap.Int("arcs", fst.NumArcsTotal[semiring.Tropical](lg)))
	return &Graph{Fst: lg, Phones: phones, Words: words}, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// LoadGraph opens a tropical decoding graph. Uncompressed const files are
// memory-mapped and must be released with the returned Closer.
func LoadGraph(path string) (fst.Fst[semiring.Tropical], io.Closer, error) {
	nop := closerFunc(func() error { return nil })
	if !strings.HasSuffix(path, ".xz") {
		h, err := fstio.ReadFileHeader(path)
		if err != nil {
			return nil, nil, err
		}
		if h.FstType == string(fstio.FormatConst) {
			m, err := fstio.MapConst(path, fstio.Tropical)
			if err != nil {
				return nil, nil, err
			}
			return m, m, nil
		}
	}
	f, err := fstio.Open(path, fstio.Tropical)
	if err != nil {
		return nil, nil, err
	}
	return f, nop, nil
}
