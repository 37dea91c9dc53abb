package decoder

import (
	"errors"
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/ieee0824/wfst-go/fst"
	"github.com/ieee0824/wfst-go/semiring"
)

// ErrNoPath is returned when no successful search has been run.
var ErrNoPath = errors.New("decoder: no successful search")

type options struct {
	metrics *Metrics
	logger  *zap.Logger
}

// Option configures a Decoder.
type Option func(*options)

// WithMetrics records search statistics on m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger overrides the package logger for one decoder.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Decoder runs token-passing Viterbi beam search over a decoding graph.
// Input labels of the graph are scored by a Scorer once per frame; input
// epsilon arcs consume no frame. Output labels along the best path form the
// result. A Decoder is not safe for concurrent use, but any number of
// decoders may share one read-only graph.
type Decoder[W semiring.Weight[W]] struct {
	graph fst.Fst[W]
	cfg   Config
	opts  options

	pool      tokenPool[W]
	cur, next *activeList[W]
	queue     []fst.StateID
	scores    map[fst.Label]float64
	order     []int
	mask      []bool

	best      *token[W]
	bestFinal W
	total     W
	frames    int
}

// New returns a decoder over graph.
func New[W semiring.Weight[W]](graph fst.Fst[W], cfg Config, opts ...Option) (*Decoder[W], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Decoder[W]{
		graph:  graph,
		cfg:    cfg,
		cur:    newActiveList[W](),
		next:   newActiveList[W](),
		scores: map[fst.Label]float64{},
		total:  semiring.Zero[W](),
	}
	for _, opt := range opts {
		opt(&d.opts)
	}
	return d, nil
}

// Config returns the decoder's configuration.
func (d *Decoder[W]) Config() Config { return d.cfg }

func (d *Decoder[W]) log() *zap.Logger {
	if d.opts.logger != nil {
		return d.opts.logger
	}
	return Logger()
}

// Search decodes numFrames frames. Frame t is scored with features[t], or
// nil when features has fewer rows. It reports whether any token reached a
// final state; on success BestPath, TotalWeight and the other accessors
// describe the winning path.
func (d *Decoder[W]) Search(features [][]float64, numFrames int, scorer Scorer) bool {
	d.reset()
	for _, in := range d.graph.Initials() {
		tok := d.pool.extend(nil, 0, nil, in.Weight, in.Weight)
		d.cur.merge(&d.pool, in.State, tok)
	}

	for t := 0; t < numFrames; t++ {
		var feats []float64
		if t < len(features) {
			feats = features[t]
		}
		d.expandEpsilon(t)
		d.expandEmitting(t, feats, scorer)
		d.cur.clear(&d.pool)
		d.cur, d.next = d.next, d.cur
		d.prune()
		d.opts.metrics.active(d.cur.len())
		if d.cur.len() == 0 {
			break
		}
		d.frames = t + 1
	}

	ok := d.frames == numFrames && d.finish()
	d.cur.clear(&d.pool)
	d.opts.metrics.search(ok, d.frames)
	if ok {
		d.log().Debug("search finished",
			zap.Int("frames", d.frames),
			zap.String("weight", d.total.String()),
			zap.Int("live_tokens", d.pool.live))
	} else {
		d.log().Debug("search failed",
			zap.Int("frames", d.frames),
			zap.Int("want_frames", numFrames),
			zap.Float64("beam", d.cfg.BeamWidth))
	}
	return ok
}

func (d *Decoder[W]) reset() {
	if d.best != nil {
		d.pool.release(d.best)
		d.best = nil
	}
	d.cur.clear(&d.pool)
	d.next.clear(&d.pool)
	d.total = semiring.Zero[W]()
	d.bestFinal = semiring.Zero[W]()
	d.frames = 0
}

// cutoff is the worst cost still inside the beam of l.
func (d *Decoder[W]) cutoff(l *activeList[W]) float64 {
	best := math.Inf(1)
	for _, t := range l.toks {
		best = min(best, t.cost)
	}
	return best + d.cfg.BeamWidth
}

// reach is the worst cost a token may have and still be expanded: the beam
// of l, widened to the worst token prune kept to satisfy MinActive.
func (d *Decoder[W]) reach(l *activeList[W]) float64 {
	cutoff := d.cutoff(l)
	for _, t := range l.toks {
		cutoff = max(cutoff, t.cost)
	}
	return cutoff
}

// expandEpsilon follows input-epsilon arcs inside the current list until no
// token improves. Every surviving token is expanded; new tokens past its
// reach are dropped.
func (d *Decoder[W]) expandEpsilon(frame int) {
	cutoff := d.reach(d.cur)
	queue := append(d.queue[:0], d.cur.states...)
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		tok := d.cur.get(s)
		if tok.cost > cutoff {
			continue
		}
		for a := range d.graph.Arcs(s) {
			if a.ILabel != fst.Epsilon {
				continue
			}
			w := tok.weight.Times(a.Weight)
			if semiring.IsZero(w) || w.Cost() > cutoff {
				continue
			}
			nt := d.pool.extend(tok, frame, &a, a.Weight, w)
			if d.cur.merge(&d.pool, a.NextState, nt) {
				queue = append(queue, a.NextState)
			}
		}
	}
	d.queue = queue[:0]
}

// expandEmitting moves every active token across the emitting arcs of its
// state into the next list, consuming frame t. Survival was decided by
// prune and expandEpsilon.
func (d *Decoder[W]) expandEmitting(t int, feats []float64, scorer Scorer) {
	clear(d.scores)
	for i, s := range d.cur.states {
		tok := d.cur.toks[i]
		for a := range d.graph.Arcs(s) {
			if a.ILabel == fst.Epsilon {
				continue
			}
			ac, ok := d.scores[a.ILabel]
			if !ok {
				ac = scorer.Score(a.ILabel, t, feats)
				d.scores[a.ILabel] = ac
			}
			step := a.Weight.Times(a.Weight.FromCost(ac))
			w := tok.weight.Times(step)
			if semiring.IsZero(w) {
				continue
			}
			nt := d.pool.extend(tok, t+1, &a, step, w)
			d.next.merge(&d.pool, a.NextState, nt)
		}
	}
}

// prune keeps the tokens within BeamWidth of the best one, raised to
// MinActive and capped at MaxActive by cost rank.
func (d *Decoder[W]) prune() {
	l := d.cur
	n := l.len()
	if n == 0 {
		return
	}
	cutoff := d.cutoff(l)
	within := 0
	for _, t := range l.toks {
		if t.cost <= cutoff {
			within++
		}
	}
	keep := max(within, min(d.cfg.MinActive, n))
	keep = min(keep, d.cfg.MaxActive)
	if keep == n {
		return
	}

	d.mask = slices.Grow(d.mask[:0], n)[:n]
	clear(d.mask)
	if keep == within {
		for i, t := range l.toks {
			d.mask[i] = t.cost <= cutoff
		}
	} else {
		d.order = d.order[:0]
		for i := range n {
			d.order = append(d.order, i)
		}
		slices.SortStableFunc(d.order, func(a, b int) int {
			ca, cb := l.toks[a].cost, l.toks[b].cost
			switch {
			case ca < cb:
				return -1
			case ca > cb:
				return 1
			}
			return 0
		})
		for _, i := range d.order[:keep] {
			d.mask[i] = true
		}
	}
	l.keep(&d.pool, d.mask)
}

// finish runs a last epsilon expansion and picks the best token on a final
// state.
func (d *Decoder[W]) finish() bool {
	d.expandEpsilon(d.frames)
	var best *token[W]
	bestCost := math.Inf(1)
	for i, s := range d.cur.states {
		fw := d.graph.Final(s)
		if semiring.IsZero(fw) {
			continue
		}
		tok := d.cur.toks[i]
		w := tok.weight.Times(fw)
		if c := w.Cost(); best == nil || c < bestCost {
			best, bestCost = tok, c
			d.total = w
			d.bestFinal = fw
		}
	}
	if best == nil {
		return false
	}
	best.refs++
	d.best = best
	return true
}

// path returns the tokens of the best path from the root, oldest first.
func (d *Decoder[W]) path() []*token[W] {
	var toks []*token[W]
	for t := d.best; t != nil; t = t.prev {
		toks = append(toks, t)
	}
	slices.Reverse(toks)
	return toks
}

// BestPath returns the non-epsilon output labels of the best path.
func (d *Decoder[W]) BestPath() []fst.Label {
	var out []fst.Label
	for _, t := range d.path() {
		if t.hasArc && t.arc.OLabel != fst.Epsilon {
			out = append(out, t.arc.OLabel)
		}
	}
	return out
}

// Alignment returns the input label consumed on each frame of the best
// path.
func (d *Decoder[W]) Alignment() []fst.Label {
	var out []fst.Label
	for _, t := range d.path() {
		if t.hasArc && t.arc.ILabel != fst.Epsilon {
			out = append(out, t.arc.ILabel)
		}
	}
	return out
}

// TotalWeight returns the weight of the best path including acoustic costs
// and the final weight, or zero when the last search failed.
func (d *Decoder[W]) TotalWeight() W { return d.total }

// NumFramesDecoded returns the number of frames the last search consumed.
func (d *Decoder[W]) NumFramesDecoded() int { return d.frames }

// BestPathFst returns the best path as a linear transducer whose arcs carry
// the graph and acoustic weight of each step.
func (d *Decoder[W]) BestPathFst() (*fst.VectorFst[W], error) {
	if d.best == nil {
		return nil, ErrNoPath
	}
	out := fst.NewVectorFst[W]()
	toks := d.path()
	s := out.AddState()
	out.SetInitial(s, toks[0].step)
	for _, t := range toks[1:] {
		n := out.AddState()
		out.AddTransition(s, n, t.arc.ILabel, t.arc.OLabel, t.step)
		s = n
	}
	out.SetFinal(s, d.bestFinal)
	return out, nil
}
