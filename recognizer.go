// Package wfst ties the decoding graph, the beam-search decoder and the
// symbol tables together into a recognizer.
package wfst

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ieee0824/wfst-go/decoder"
	"github.com/ieee0824/wfst-go/fst"
	"github.com/ieee0824/wfst-go/semiring"
	"github.com/ieee0824/wfst-go/symbols"
)

// ErrNoFinalState is returned when every attempt ended without a token on a
// final state.
var ErrNoFinalState = errors.New("wfst: no path reached a final state")

// Result is the outcome of one recognition.
type Result[W semiring.Weight[W]] struct {
	Labels    []fst.Label // output labels of the best path
	Words     []string    // Labels mapped through the output symbols, if any
	Alignment []fst.Label // input label per frame
	Weight    W
	Frames    int
	Beam      float64 // beam of the successful attempt
	Retries   int
}

// Cost returns the scalar cost of the best path.
func (r *Result[W]) Cost() float64 { return r.Weight.Cost() }

type options struct {
	decCfg     decoder.Config
	maxRetries int
	osyms      *symbols.Table
	metrics    *decoder.Metrics
}

// Option configures a Recognizer.
type Option func(*options)

// WithDecoderConfig sets custom decoder parameters.
func WithDecoderConfig(cfg decoder.Config) Option {
	return func(o *options) {
		o.decCfg = cfg
	}
}

// WithMaxRetries sets how many times a failed search is repeated with a
// doubled beam.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		o.maxRetries = n
	}
}

// WithOutputSymbols maps output labels to words in results.
func WithOutputSymbols(t *symbols.Table) Option {
	return func(o *options) {
		o.osyms = t
	}
}

// WithMetrics records decoder statistics on m.
func WithMetrics(m *decoder.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// Recognizer decodes utterances against one read-only graph. It is safe for
// concurrent use; every call runs its own decoder.
type Recognizer[W semiring.Weight[W]] struct {
	graph fst.Fst[W]
	opts  options
}

// NewRecognizer creates a Recognizer over graph.
func NewRecognizer[W semiring.Weight[W]](graph fst.Fst[W], opts ...Option) (*Recognizer[W], error) {
	r := &Recognizer[W]{
		graph: graph,
		opts: options{
			decCfg:     decoder.DefaultConfig(),
			maxRetries: 2,
		},
	}
	for _, opt := range opts {
		opt(&r.opts)
	}
	if err := r.opts.decCfg.Validate(); err != nil {
		return nil, err
	}
	if r.opts.maxRetries < 0 {
		return nil, fmt.Errorf("wfst: negative retry count %d", r.opts.maxRetries)
	}
	return r, nil
}

// Graph returns the decoding graph.
func (r *Recognizer[W]) Graph() fst.Fst[W] { return r.graph }

// Recognize decodes numFrames frames. When no token reaches a final state
// the search is repeated with twice the beam, up to the configured number
// of retries.
func (r *Recognizer[W]) Recognize(features [][]float64, numFrames int, scorer decoder.Scorer) (*Result[W], error) {
	cfg := r.opts.decCfg
	for attempt := 0; ; attempt++ {
		d, err := decoder.New(r.graph, cfg, decoder.WithMetrics(r.opts.metrics))
		if err != nil {
			return nil, err
		}
		if d.Search(features, numFrames, scorer) {
			return r.result(d, cfg.BeamWidth, attempt), nil
		}
		if attempt == r.opts.maxRetries {
			return nil, fmt.Errorf("%w: %d attempts, last beam %g, %d of %d frames",
				ErrNoFinalState, attempt+1, cfg.BeamWidth, d.NumFramesDecoded(), numFrames)
		}
		cfg.BeamWidth *= 2
		Logger().Info("search failed, widening beam",
			zap.Int("attempt", attempt+1),
			zap.Float64("beam", cfg.BeamWidth))
	}
}

func (r *Recognizer[W]) result(d *decoder.Decoder[W], beam float64, retries int) *Result[W] {
	res := &Result[W]{
		Labels:    d.BestPath(),
		Alignment: d.Alignment(),
		Weight:    d.TotalWeight(),
		Frames:    d.NumFramesDecoded(),
		Beam:      beam,
		Retries:   retries,
	}
	if r.opts.osyms != nil {
		res.Words = make([]string, len(res.Labels))
		for i, l := range res.Labels {
			w, ok := r.opts.osyms.Symbol(l)
			if !ok {
				w = fmt.Sprintf("<%d>", l)
			}
			res.Words[i] = w
		}
	}
	return res
}
