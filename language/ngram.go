// Package language loads back-off n-gram language models and compiles them
// into grammar acceptors.
package language

import (
	"slices"
	"strings"

	"github.com/ieee0824/wfst-go/internal/mathutil"
)

// Sentence boundary words.
const (
	BOS = "<s>"
	EOS = "</s>"
)

// Entry holds the natural-log probability of an n-gram and the back-off
// weight of the n-gram used as a history.
type Entry struct {
	LogProb    float64
	LogBackoff float64
}

// NGramModel is a back-off n-gram language model of any order.
type NGramModel struct {
	Order int
	grams []map[string]Entry // grams[n-1] holds the n-grams keyed by their words
}

// NewNGramModel creates an empty model.
func NewNGramModel(order int) *NGramModel {
	m := &NGramModel{}
	m.grow(order)
	return m
}

func (m *NGramModel) grow(order int) {
	for len(m.grams) < order {
		m.grams = append(m.grams, make(map[string]Entry))
	}
	m.Order = max(m.Order, order)
}

func key(words []string) string { return strings.Join(words, " ") }

// Add stores an n-gram, raising the model order if needed.
func (m *NGramModel) Add(words []string, e Entry) {
	if len(words) == 0 {
		return
	}
	m.grow(len(words))
	m.grams[len(words)-1][key(words)] = e
}

// Lookup returns the entry of an n-gram.
func (m *NGramModel) Lookup(words ...string) (Entry, bool) {
	if len(words) == 0 || len(words) > len(m.grams) {
		return Entry{}, false
	}
	e, ok := m.grams[len(words)-1][key(words)]
	return e, ok
}

// Count returns the number of n-grams of the given order.
func (m *NGramModel) Count(order int) int {
	if order < 1 || order > len(m.grams) {
		return 0
	}
	return len(m.grams[order-1])
}

// NGrams returns the n-grams of one order in lexical order.
func (m *NGramModel) NGrams(order int) [][]string {
	if order < 1 || order > len(m.grams) {
		return nil
	}
	keys := make([]string, 0, len(m.grams[order-1]))
	for k := range m.grams[order-1] {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([][]string, len(keys))
	for i, k := range keys {
		out[i] = strings.Split(k, " ")
	}
	return out
}

// LogProb returns the log probability of a word given its history, backing
// off to shorter histories when the full n-gram is not listed.
func (m *NGramModel) LogProb(history []string, word string) float64 {
	if n := m.Order - 1; len(history) > n {
		history = history[len(history)-n:]
	}
	total := 0.0
	for ; len(history) > 0; history = history[1:] {
		if e, ok := m.Lookup(append(slices.Clone(history), word)...); ok {
			return total + e.LogProb
		}
		if e, ok := m.Lookup(history...); ok {
			total += e.LogBackoff
		}
	}
	if e, ok := m.Lookup(word); ok {
		return total + e.LogProb
	}
	return mathutil.LogZero
}

// SentenceLogProb returns the total log probability of a word sequence,
// adding <s> at the beginning and </s> at the end.
func (m *NGramModel) SentenceLogProb(words []string) float64 {
	total := 0.0
	history := []string{BOS}
	for _, w := range words {
		total += m.LogProb(history, w)
		history = append(history, w)
	}
	total += m.LogProb(history, EOS)
	return total
}

// Vocab returns the unigram vocabulary in lexical order.
func (m *NGramModel) Vocab() []string {
	var words []string
	for _, g := range m.NGrams(1) {
		words = append(words, g[0])
	}
	return words
}
