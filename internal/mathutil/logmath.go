package mathutil

import "math"

// LogZero represents log(0) for n-gram scores that are kept finite.
const LogZero = -1e30

// logAddCutoff is the difference beyond which the smaller term no longer
// changes a float64 sum (exp(-36) ≈ 2.3e-16).
const logAddCutoff = -36.0

func isLogZero(x float64) bool {
	return x == LogZero || math.IsInf(x, -1)
}

// LogAdd returns log(exp(a) + exp(b)) in a numerically stable way.
// Both LogZero and -Inf are treated as log(0).
func LogAdd(a, b float64) float64 {
	if a < b {
		a, b = b, a
	}
	if isLogZero(b) {
		return a
	}
	d := b - a
	if d < logAddCutoff {
		return a
	}
	return a + math.Log1p(math.Exp(d))
}

// NegLogAdd returns -log(exp(-a) + exp(-b)), the sum of two costs
// expressed as negated log probabilities. +Inf is the zero cost sum identity.
func NegLogAdd(a, b float64) float64 {
	if math.IsInf(a, 1) {
		return b
	}
	if math.IsInf(b, 1) {
		return a
	}
	return -LogAdd(-a, -b)
}
