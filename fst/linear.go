package fst

import (
	"github.com/ieee0824/wfst-go/semiring"
)

// Linear returns the acceptor of the single string labels with weight one.
func Linear[W semiring.Weight[W]](labels []Label) *VectorFst[W] {
	f := NewVectorFst[W]()
	s := f.AddState()
	f.SetInitial(s, semiring.One[W]())
	for _, l := range labels {
		n := f.AddState()
		f.AddTransition(s, n, l, l, semiring.One[W]())
		s = n
	}
	f.SetFinal(s, semiring.One[W]())
	return f
}

// InputWeight returns the semiring sum of the weights of all paths of f
// whose input string is input, zero when f rejects it.
func InputWeight[W semiring.Weight[W]](f Fst[W], input []Label) W {
	return PathSum[W](Compose[W](Linear[W](input), f, SequenceFilter[W]{}))
}
