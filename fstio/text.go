package fstio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ieee0824/wfst-go/fst"
	"github.com/ieee0824/wfst-go/semiring"
)

// SymbolTable maps between symbols and labels.
type SymbolTable interface {
	Find(symbol string) (fst.Label, bool)
	Symbol(label fst.Label) (string, bool)
}

// TextOptions configures the text format.
type TextOptions struct {
	// Acceptor lines carry one label per arc.
	Acceptor bool
	// Symbol tables for input and output labels. Nil tables mean labels are
	// written as integers.
	ISymbols SymbolTable
	OSymbols SymbolTable
}

// ReadText reads the AT&T text format: one arc per line as
// "src dst in out [weight]" ("src dst label [weight]" for acceptors) and one
// final state per line as "state [weight]". The source of the first line is
// the start state. Reading stops at the first blank line.
func ReadText[W semiring.Weight[W]](r io.Reader, opts TextOptions) (*fst.VectorFst[W], error) {
	f := fst.NewVectorFst[W]()
	one := semiring.One[W]()
	arcFields := 4
	if opts.Acceptor {
		arcFields = 3
	}
	ensure := func(s fst.StateID) {
		for f.NumStates() <= s {
			f.AddState()
		}
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			break
		}
		syntax := func(format string, args ...any) error {
			return newError("read", KindSyntax, fmt.Sprintf("line %d: ", lineNo)+fmt.Sprintf(format, args...), nil)
		}

		src, err := parseState(fields[0])
		if err != nil {
			return nil, syntax("state %q", fields[0])
		}
		ensure(src)
		if lineNo == 1 {
			f.SetInitial(src, one)
		}

		switch n := len(fields); {
		case n <= 2:
			w := one
			if n == 2 {
				if w, err = parseWeight[W](fields[1]); err != nil {
					return nil, syntax("final weight %q: %v", fields[1], err)
				}
			}
			f.SetFinal(src, w)
		case n == arcFields || n == arcFields+1:
			dst, err := parseState(fields[1])
			if err != nil {
				return nil, syntax("state %q", fields[1])
			}
			in, err := parseLabel(fields[2], opts.ISymbols)
			if err != nil {
				return nil, syntax("%v", err)
			}
			out := in
			if !opts.Acceptor {
				if out, err = parseLabel(fields[3], opts.OSymbols); err != nil {
					return nil, syntax("%v", err)
				}
			}
			w := one
			if n == arcFields+1 {
				if w, err = parseWeight[W](fields[n-1]); err != nil {
					return nil, syntax("arc weight %q: %v", fields[n-1], err)
				}
			}
			ensure(dst)
			f.AddTransition(src, dst, in, out, w)
		default:
			return nil, syntax("%d fields", n)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, newError("read", KindTruncated, "text input", err)
	}
	return f, nil
}

func parseState(s string) (fst.StateID, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil || v < 0 {
		return fst.NoState, fmt.Errorf("bad state %q", s)
	}
	return fst.StateID(v), nil
}

func parseLabel(s string, syms SymbolTable) (fst.Label, error) {
	if syms != nil {
		l, ok := syms.Find(s)
		if !ok {
			return 0, fmt.Errorf("unknown symbol %q", s)
		}
		return l, nil
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("bad label %q", s)
	}
	return fst.Label(v), nil
}

func parseWeight[W semiring.Weight[W]](s string) (W, error) {
	var w W
	return w.Parse(s)
}

func formatLabel(l fst.Label, syms SymbolTable) string {
	if syms != nil {
		if s, ok := syms.Symbol(l); ok {
			return s
		}
	}
	return strconv.Itoa(int(l))
}

// WriteText writes f in the text format, start state first. Weights equal to
// one are omitted. Several or weighted initial states are first collapsed
// into a super-initial state. The format names the start state through its
// first line, so a transducer without a start state, or whose start state
// has no arcs and is not final, accepts nothing and is written as no lines.
func WriteText[W semiring.Weight[W]](w io.Writer, f fst.Fst[W], opts TextOptions) error {
	f, start := singleStart(f)
	if start == fst.NoState || (f.NumArcs(start) == 0 && !fst.IsFinal(f, start)) {
		Logger().Debug("empty language written as empty text",
			zap.Int("states", f.NumStates()))
		return nil
	}
	bw := bufio.NewWriter(w)
	order := make([]fst.StateID, 0, f.NumStates())
	if start != fst.NoState {
		order = append(order, start)
	}
	for s := range f.NumStates() {
		if s != start {
			order = append(order, s)
		}
	}
	var fields []string
	for _, s := range order {
		for a := range f.Arcs(s) {
			fields = append(fields[:0], strconv.Itoa(s), strconv.Itoa(a.NextState), formatLabel(a.ILabel, opts.ISymbols))
			if !opts.Acceptor {
				fields = append(fields, formatLabel(a.OLabel, opts.OSymbols))
			}
			if !semiring.IsOne(a.Weight) {
				fields = append(fields, a.Weight.String())
			}
			bw.WriteString(strings.Join(fields, "\t"))
			bw.WriteByte('\n')
		}
		if fw := f.Final(s); !semiring.IsZero(fw) {
			fields = append(fields[:0], strconv.Itoa(s))
			if !semiring.IsOne(fw) {
				fields = append(fields, fw.String())
			}
			bw.WriteString(strings.Join(fields, "\t"))
			bw.WriteByte('\n')
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("fstio: write text: %w", err)
	}
	return nil
}
