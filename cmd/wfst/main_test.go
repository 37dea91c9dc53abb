package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errBuf bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errBuf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const weightedText = "0\t1\t1\t1\t0.5\n" +
	"0\t2\t2\t2\t1.5\n" +
	"1\t3\t3\t3\n" +
	"2\t3\t3\t3\n" +
	"3\t2\n"

func TestCompilePrintRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "a.txt", weightedText)

	for _, format := range []string{"vector", "const"} {
		t.Run(format, func(t *testing.T) {
			bin := filepath.Join(dir, format+".fst")
			_, _, err := run(t, "compile", "--fst-type", format, src, bin)
			require.NoError(t, err)

			out, _, err := run(t, "print", bin)
			require.NoError(t, err)
			assert.Equal(t, weightedText, out)
		})
	}
}

func TestCompileWithSymbols(t *testing.T) {
	dir := t.TempDir()
	syms := writeFile(t, dir, "syms.txt", "<eps> 0\nhello 1\nworld 2\n")
	src := writeFile(t, dir, "a.txt", "0 1 hello\n1 2 world 0.25\n2\n")
	bin := filepath.Join(dir, "a.fst")

	_, _, err := run(t, "compile", "--acceptor", "--isymbols", syms, src, bin)
	require.NoError(t, err)

	out, _, err := run(t, "print", "--acceptor", "--isymbols", syms, bin)
	require.NoError(t, err)
	assert.Equal(t, "0\t1\thello\n1\t2\tworld\t0.25\n2\n", out)

	out, _, err = run(t, "print", bin)
	require.NoError(t, err)
	assert.Equal(t, "0\t1\t1\t1\n1\t2\t2\t2\t0.25\n2\n", out)
}

func TestInfo(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "a.txt", weightedText)
	vec := filepath.Join(dir, "a.fst")
	xz := filepath.Join(dir, "a.const.xz")
	_, _, err := run(t, "compile", src, vec)
	require.NoError(t, err)
	_, _, err = run(t, "compile", "--fst-type", "const", src, xz)
	require.NoError(t, err)

	out, _, err := run(t, "info", vec)
	require.NoError(t, err)
	assert.Contains(t, out, "fst type        vector\n")
	assert.Contains(t, out, "arc type        standard\n")
	assert.Contains(t, out, "states          4\n")
	assert.Contains(t, out, "arcs            4\n")
	assert.Contains(t, out, "deterministic   yes\n")
	assert.Contains(t, out, "acyclic         yes\n")

	digest := func(out string) string {
		for _, line := range strings.Split(out, "\n") {
			if rest, ok := strings.CutPrefix(line, "blake3"); ok {
				return strings.TrimSpace(rest)
			}
		}
		return ""
	}
	xzOut, _, err := run(t, "info", xz)
	require.NoError(t, err)
	assert.Contains(t, xzOut, "fst type        const\n")
	assert.Len(t, digest(out), 64)
	assert.Equal(t, digest(out), digest(xzOut))
}

func TestLogArcType(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "a.txt", "0\t1\t1\t1\t0.5\n0\t1\t1\t1\t0.5\n1\n")
	bin := filepath.Join(dir, "a.fst")
	det := filepath.Join(dir, "det.fst")

	_, _, err := run(t, "compile", "--arc-type", "log", src, bin)
	require.NoError(t, err)
	_, _, err = run(t, "determinize", bin, det)
	require.NoError(t, err)

	out, _, err := run(t, "info", det)
	require.NoError(t, err)
	assert.Contains(t, out, "arc type        log\n")
	assert.Contains(t, out, "arcs            1\n")

	_, _, err = run(t, "compile", "--arc-type", "bogus", src, bin)
	assert.ErrorContains(t, err, "unsupported arc type")
}

func TestTransformCommands(t *testing.T) {
	dir := t.TempDir()
	// Two epsilon-separated paths reading "1 2" with different weights and
	// a dead state.
	src := writeFile(t, dir, "a.txt",
		"0\t1\t0\t0\t1\n"+
			"0\t2\t1\t1\t3\n"+
			"1\t2\t1\t1\t1\n"+
			"2\t3\t2\t2\n"+
			"0\t4\t5\t5\n"+
			"3\n")
	bin := filepath.Join(dir, "a.fst")
	_, _, err := run(t, "compile", src, bin)
	require.NoError(t, err)

	next := func(name string, args ...string) string {
		out := filepath.Join(dir, name+".fst")
		_, _, err := run(t, append(append([]string{name}, args...), bin, out)...)
		require.NoError(t, err, name)
		bin = out
		return out
	}
	next("connect")
	next("rmepsilon")
	next("determinize", "--state-limit", "100")
	next("minimize")
	next("push", "--fst-type", "const")

	out, _, err := run(t, "print", bin)
	require.NoError(t, err)
	// The pushed weight sits on the initial state, which the writer moves
	// onto an arc from a new start state.
	assert.Equal(t, "3\t0\t0\t0\t2\n0\t1\t1\t1\n1\t2\t2\t2\n2\n", out)

	_, _, err = run(t, "minimize", filepath.Join(dir, "rmepsilon.fst"), filepath.Join(dir, "bad.fst"))
	assert.ErrorContains(t, err, "deterministic")
}

func TestCompose(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.fst")
	b := filepath.Join(dir, "b.fst")
	ab := filepath.Join(dir, "ab.fst")
	_, _, err := run(t, "compile", writeFile(t, dir, "a.txt", "0 1 1 2 0.5\n1\n"), a)
	require.NoError(t, err)
	_, _, err = run(t, "compile", writeFile(t, dir, "b.txt", "0 1 2 3 0.25\n0 1 4 4\n1\n"), b)
	require.NoError(t, err)

	for _, filter := range []string{"sequence", "match", "naive"} {
		_, _, err = run(t, "compose", "--filter", filter, a, b, ab)
		require.NoError(t, err, filter)
		out, _, err := run(t, "print", ab)
		require.NoError(t, err)
		assert.Equal(t, "0\t1\t1\t3\t0.75\n1\n", out, filter)
	}

	_, _, err = run(t, "compose", "--filter", "bogus", a, b, ab)
	assert.ErrorContains(t, err, "unknown compose filter")
}

const decodeGraph = "0\t1\t1\t1\n" +
	"1\t1\t1\t0\n" +
	"1\t3\t0\t0\n" +
	"0\t2\t2\t2\n" +
	"2\t2\t2\t0\n" +
	"2\t3\t0\t0\n" +
	"3\n"

func TestDecode(t *testing.T) {
	dir := t.TempDir()
	graph := filepath.Join(dir, "graph.fst")
	_, _, err := run(t, "compile", "--fst-type", "const", writeFile(t, dir, "graph.txt", decodeGraph), graph)
	require.NoError(t, err)
	words := writeFile(t, dir, "words.txt", "<eps> 0\nalpha 1\nbeta 2\n")
	utt1 := writeFile(t, dir, "utt1.txt", "-0.1 -2\n-0.1 -2\n-0.2 -3\n")
	utt2 := writeFile(t, dir, "utt2.txt", "-4 -0.1\n-4 -0.1\n")
	refs := writeFile(t, dir, "refs.txt", "utt1 alpha\nutt2 alpha\n")
	config := writeFile(t, dir, "decoder.yaml", "beam_width: 10\nmin_active: 0\n")

	out, stderr, err := run(t, "decode", "--words", words, "--ref", refs, "--config", config, "--jobs", "2",
		graph, utt1, utt2)
	require.NoError(t, err)
	assert.Equal(t, "utt1 alpha\nutt2 beta\n", out)
	assert.Contains(t, stderr, "%WER 50.00 [ 1 / 2, 2 utterances ]")

	out, _, err = run(t, "decode", "--beam", "5", graph, utt2)
	require.NoError(t, err)
	assert.Equal(t, "utt2 2\n", out)
}

func TestDecodeFailures(t *testing.T) {
	dir := t.TempDir()
	graph := filepath.Join(dir, "graph.fst")
	_, _, err := run(t, "compile", writeFile(t, dir, "graph.txt", decodeGraph), graph)
	require.NoError(t, err)
	empty := writeFile(t, dir, "empty.txt", "")
	good := writeFile(t, dir, "good.txt", "-0.1 -2\n")

	out, _, err := run(t, "decode", graph, good, empty)
	assert.ErrorContains(t, err, "1 of 2 utterances failed")
	assert.Equal(t, "good 1\nempty\n", out)

	narrow := writeFile(t, dir, "narrow.txt", "0\n")
	_, _, err = run(t, "decode", graph, narrow)
	assert.ErrorContains(t, err, "graph uses input label 2")

	_, _, err = run(t, "decode", "--beam", "-1", graph, good)
	assert.Error(t, err)
}

func TestDecodeGMM(t *testing.T) {
	dir := t.TempDir()
	graph := filepath.Join(dir, "graph.fst")
	_, _, err := run(t, "compile", writeFile(t, dir, "graph.txt", decodeGraph), graph)
	require.NoError(t, err)
	phones := writeFile(t, dir, "phones.txt", "<eps> 0\na 1\nb 2\n")
	model := writeFile(t, dir, "model.yaml", `dim: 2
states:
  - label: a
    components:
      - {mean: [0, 0], variance: [1, 1]}
  - label: b
    components:
      - {mean: [4, 4], variance: [1, 1]}
`)
	near := writeFile(t, dir, "near.txt", "0.1 -0.2\n0.3 0.1\n")
	far := writeFile(t, dir, "far.txt", "3.9 4.2\n4.1 3.8\n4 4\n")

	out, _, err := run(t, "decode", "--gmm", model, "--phones", phones, graph, near, far)
	require.NoError(t, err)
	assert.Equal(t, "near 1\nfar 2\n", out)

	wide := writeFile(t, dir, "wide.txt", "0 0 0\n")
	_, _, err = run(t, "decode", "--gmm", model, "--phones", phones, graph, wide)
	assert.ErrorContains(t, err, "model dimension is 2")
}
