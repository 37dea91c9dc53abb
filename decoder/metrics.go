package decoder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts decoder activity. A nil *Metrics records nothing.
type Metrics struct {
	Searches     prometheus.Counter
	Failures     prometheus.Counter
	Frames       prometheus.Counter
	ActiveTokens prometheus.Histogram
}

// NewMetrics creates the decoder metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Searches: factory.NewCounter(prometheus.CounterOpts{
			Name: "wfst_decoder_searches_total",
			Help: "Total decoder searches",
		}),
		Failures: factory.NewCounter(prometheus.CounterOpts{
			Name: "wfst_decoder_failures_total",
			Help: "Searches that reached no final state",
		}),
		Frames: factory.NewCounter(prometheus.CounterOpts{
			Name: "wfst_decoder_frames_total",
			Help: "Frames decoded",
		}),
		ActiveTokens: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "wfst_decoder_active_tokens",
			Help:    "Tokens surviving pruning per frame",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}

func (m *Metrics) search(ok bool, frames int) {
	if m == nil {
		return
	}
	m.Searches.Inc()
	if !ok {
		m.Failures.Inc()
	}
	m.Frames.Add(float64(frames))
}

func (m *Metrics) active(n int) {
	if m == nil {
		return
	}
	m.ActiveTokens.Observe(float64(n))
}
