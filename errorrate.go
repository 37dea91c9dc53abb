package wfst

// EditDistance computes the Levenshtein distance between two sequences.
func EditDistance[T comparable](a, b []T) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	// Use two rows to save memory.
	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[lb]
}

// ErrorRate returns the word edit count of hyp against ref and the rate
// relative to the reference length. An empty reference has rate 0 when hyp
// is empty as well, 1 otherwise.
func ErrorRate(ref, hyp []string) (edits int, rate float64) {
	edits = EditDistance(ref, hyp)
	switch {
	case len(ref) > 0:
		rate = float64(edits) / float64(len(ref))
	case edits > 0:
		rate = 1
	}
	return edits, rate
}
