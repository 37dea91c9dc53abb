// Package symbols maps between symbol strings and integer labels.
package symbols

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// Epsilon is the symbol of label 0.
const Epsilon = "<eps>"

// Table is a bidirectional symbol/label map. Label 0 is always Epsilon.
type Table struct {
	byName  map[string]int32
	byLabel map[int32]string
	next    int32
}

// New returns a table holding only Epsilon.
func New() *Table {
	t := &Table{
		byName:  map[string]int32{},
		byLabel: map[int32]string{},
	}
	t.set(Epsilon, 0)
	return t
}

func (t *Table) set(sym string, l int32) {
	t.byName[sym] = l
	t.byLabel[l] = sym
	if l >= t.next {
		t.next = l + 1
	}
}

// Add returns the label of sym, assigning the next free label if needed.
func (t *Table) Add(sym string) int32 {
	if l, ok := t.byName[sym]; ok {
		return l
	}
	l := t.next
	t.set(sym, l)
	return l
}

// Find returns the label of sym.
func (t *Table) Find(sym string) (int32, bool) {
	l, ok := t.byName[sym]
	return l, ok
}

// Symbol returns the symbol of label l.
func (t *Table) Symbol(l int32) (string, bool) {
	s, ok := t.byLabel[l]
	return s, ok
}

// Len returns the number of symbols, Epsilon included.
func (t *Table) Len() int { return len(t.byName) }

// Labels returns all labels in increasing order.
func (t *Table) Labels() []int32 {
	out := make([]int32, 0, len(t.byLabel))
	for l := range t.byLabel {
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}

// Read loads a table of "symbol label" lines.
func Read(r io.Reader) (*Table, error) {
	t := New()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("symbols: line %d: want 2 fields, got %d", lineNo, len(fields))
		}
		l, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil || l < 0 {
			return nil, fmt.Errorf("symbols: line %d: bad label %q", lineNo, fields[1])
		}
		if prev, ok := t.byLabel[int32(l)]; ok && prev != fields[0] {
			return nil, fmt.Errorf("symbols: line %d: label %d already bound to %q", lineNo, l, prev)
		}
		if l == 0 && fields[0] != Epsilon {
			delete(t.byName, Epsilon)
		}
		t.set(fields[0], int32(l))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("symbols: read: %w", err)
	}
	return t, nil
}

// Write stores the table in the format Read accepts.
func (t *Table) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, l := range t.Labels() {
		fmt.Fprintf(bw, "%s\t%d\n", t.byLabel[l], l)
	}
	return bw.Flush()
}
