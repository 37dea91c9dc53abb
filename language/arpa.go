package language

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// LoadARPA reads a language model in ARPA format.
// Log probabilities in ARPA files are base-10; they are converted to natural log.
func LoadARPA(r io.Reader) (*NGramModel, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	next := func() (string, bool) {
		for scanner.Scan() {
			lineNo++
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				return line, true
			}
		}
		return "", false
	}

	// Skip until \data\ section
	line, ok := next()
	for ok && line != `\data\` {
		line, ok = next()
	}
	if !ok {
		return nil, firstErr(scanner.Err(), fmt.Errorf(`arpa: missing \data\ section`))
	}

	counts := map[int]int{}
	maxOrder := 0
	for line, ok = next(); ok && strings.HasPrefix(line, "ngram "); line, ok = next() {
		order, count, err := parseCount(line[len("ngram "):])
		if err != nil {
			return nil, fmt.Errorf("arpa line %d: %w", lineNo, err)
		}
		counts[order] = count
		maxOrder = max(maxOrder, order)
	}
	if maxOrder == 0 {
		return nil, fmt.Errorf("arpa: no ngram counts")
	}
	model := NewNGramModel(maxOrder)

	for ok && line != `\end\` {
		if !strings.HasPrefix(line, `\`) || !strings.HasSuffix(line, "-grams:") {
			return nil, fmt.Errorf("arpa line %d: unexpected %q", lineNo, line)
		}
		// e.g., \1-grams:
		order, err := strconv.Atoi(strings.TrimSuffix(line[1:], "-grams:"))
		if err != nil || order < 1 || order > maxOrder {
			return nil, fmt.Errorf("arpa line %d: bad section %q", lineNo, line)
		}
		for line, ok = next(); ok && !strings.HasPrefix(line, `\`); line, ok = next() {
			if err := parseNGramLine(model, order, line); err != nil {
				return nil, fmt.Errorf("arpa line %d: %w", lineNo, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf(`arpa: missing \end\`)
	}
	for order, want := range counts {
		if got := model.Count(order); got != want {
			return nil, fmt.Errorf("arpa: %d %d-grams listed, header says %d", got, order, want)
		}
	}
	return model, nil
}

// LoadARPAFile is a convenience wrapper that opens a file path.
func LoadARPAFile(path string) (*NGramModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := LoadARPA(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func parseCount(s string) (order, count int, err error) {
	parts := strings.SplitN(s, "=", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad ngram count %q", s)
	}
	if order, err = strconv.Atoi(strings.TrimSpace(parts[0])); err != nil || order < 1 {
		return 0, 0, fmt.Errorf("bad ngram order %q", s)
	}
	if count, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil || count < 0 {
		return 0, 0, fmt.Errorf("bad ngram count %q", s)
	}
	return order, count, nil
}

func parseNGramLine(model *NGramModel, order int, line string) error {
	fields := strings.Fields(line)
	if len(fields) < order+1 || len(fields) > order+2 {
		return fmt.Errorf("wrong field count for %d-gram: %q", order, line)
	}

	logProb, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return fmt.Errorf("parse log prob: %w", err)
	}
	// Convert base-10 to natural log
	logProb *= math.Ln10

	var logBackoff float64
	if len(fields) > order+1 {
		bo, err := strconv.ParseFloat(fields[order+1], 64)
		if err != nil {
			return fmt.Errorf("parse backoff: %w", err)
		}
		logBackoff = bo * math.Ln10
	}

	model.Add(fields[1:order+1], Entry{LogProb: logProb, LogBackoff: logBackoff})
	return nil
}
