package lexicon

import (
	"fmt"

	"github.com/ieee0824/wfst-go/fst"
	"github.com/ieee0824/wfst-go/semiring"
	"github.com/ieee0824/wfst-go/symbols"
)

// Fst compiles the dictionary into a lexicon transducer. State 0 is both
// initial and final; every pronunciation is a path from it back to it that
// reads the phones and writes the word on its first arc. Words are visited
// in lexical order and missing symbols are added to the tables.
func (d *Dictionary) Fst(phones, words *symbols.Table) (*fst.VectorFst[semiring.Tropical], error) {
	one := semiring.One[semiring.Tropical]()
	l := fst.NewVectorFst[semiring.Tropical]()
	loop := l.AddState()
	l.SetInitial(loop, one)
	l.SetFinal(loop, one)

	for _, word := range d.Words() {
		wl := words.Add(word)
		for _, e := range d.Entries[word] {
			if len(e.Phones) == 0 {
				return nil, fmt.Errorf("lexicon: empty pronunciation for %q", word)
			}
			src, out := loop, wl
			for i, ph := range e.Phones {
				dst := loop
				if i < len(e.Phones)-1 {
					dst = l.AddState()
				}
				l.AddTransition(src, dst, phones.Add(ph), out, one)
				src, out = dst, fst.Epsilon
			}
		}
	}
	return l, nil
}
