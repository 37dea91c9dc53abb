package acoustic

import (
	"errors"
	"fmt"
	"math"

	"github.com/ieee0824/wfst-go/internal/mathutil"
)

// Gaussian is a single diagonal-covariance mixture component.
type Gaussian struct {
	Mean      []float64 // [dim]
	Variance  []float64 // [dim] diagonal covariance
	LogWeight float64   // log mixture weight
}

// GMM is a Gaussian mixture with diagonal covariance.
type GMM struct {
	Components []Gaussian
	Dim        int

	// Packed per-component data, built by NewGMM.
	means  []float64 // [k*dim]
	invVar []float64 // [k*dim]
	consts []float64 // [k] logWeight - logNormConst
}

// NewGMM validates the components and packs them for scoring. Weights are
// taken as given; they are not renormalized.
func NewGMM(components []Gaussian) (*GMM, error) {
	if len(components) == 0 {
		return nil, errors.New("gmm: no components")
	}
	dim := len(components[0].Mean)
	if dim == 0 {
		return nil, errors.New("gmm: zero dimension")
	}
	g := &GMM{
		Components: components,
		Dim:        dim,
		means:      make([]float64, 0, len(components)*dim),
		invVar:     make([]float64, 0, len(components)*dim),
		consts:     make([]float64, len(components)),
	}
	for i, c := range components {
		if len(c.Mean) != dim || len(c.Variance) != dim {
			return nil, fmt.Errorf("gmm: component %d has dimension %d/%d, want %d", i, len(c.Mean), len(c.Variance), dim)
		}
		logNorm := float64(dim) / 2 * math.Log(2*math.Pi)
		for d, v := range c.Variance {
			if !(v > 0) {
				return nil, fmt.Errorf("gmm: component %d variance[%d] = %g", i, d, v)
			}
			logNorm += 0.5 * math.Log(v)
			g.invVar = append(g.invVar, 1/v)
		}
		g.means = append(g.means, c.Mean...)
		g.consts[i] = c.LogWeight - logNorm
	}
	return g, nil
}

// mahalanobis computes sum((x[i]-mean[i])^2 * invVar[i]).
func mahalanobis(x, mean, invVar []float64) float64 {
	maha := 0.0
	for i, xi := range x {
		diff := xi - mean[i]
		maha += diff * diff * invVar[i]
	}
	return maha
}

// LogProb computes log P(x | g) = log sum_k w_k * N(x; mu_k, sigma_k).
// x must have g.Dim elements.
func (g *GMM) LogProb(x []float64) float64 {
	logSum := mathutil.LogZero
	for c, k := range g.consts {
		off := c * g.Dim
		maha := mahalanobis(x, g.means[off:off+g.Dim], g.invVar[off:off+g.Dim])
		logSum = mathutil.LogAdd(logSum, k-0.5*maha)
	}
	return logSum
}

// LogProbBatch computes LogProb for multiple observations, writing results into dst.
func (g *GMM) LogProbBatch(xs [][]float64, dst []float64) {
	for i, x := range xs {
		dst[i] = g.LogProb(x)
	}
}
