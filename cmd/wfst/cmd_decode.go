package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	wfst "github.com/ieee0824/wfst-go"
	"github.com/ieee0824/wfst-go/acoustic"
	"github.com/ieee0824/wfst-go/decoder"
	"github.com/ieee0824/wfst-go/fst"
	"github.com/ieee0824/wfst-go/semiring"
)

type decodeFlags struct {
	words         string
	config        string
	beam          float64
	maxActive     int
	minActive     int
	acousticScale float64
	maxRetries    int
	jobs          int
	ref           string
	gmm           string
	phones        string
}

type utterance struct {
	id    string
	path  string
	words []string
	cost  float64
	err   error
}

func newDecodeCmd() *cobra.Command {
	var fl decodeFlags
	cmd := &cobra.Command{
		Use:   "decode <graph.fst> <loglikes>...",
		Short: "Decode log-likelihood matrices against a tropical graph",
		Long: `Each loglikes file holds one frame per line; column j is the
log-likelihood of input label j+1. With --gmm the files hold feature
vectors instead and are scored by the Gaussian mixture of each input
label. Results are printed as "<utterance> <word>..." in argument order.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := decoder.LoadConfig(fl.config)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("beam") {
				cfg.BeamWidth = fl.beam
			}
			if flags.Changed("max-active") {
				cfg.MaxActive = fl.maxActive
			}
			if flags.Changed("min-active") {
				cfg.MinActive = fl.minActive
			}
			return runDecode(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], args[1:], cfg, fl)
		},
	}
	f := cmd.Flags()
	f.StringVar(&fl.words, "words", "", "output symbol table")
	f.StringVar(&fl.config, "config", "", "decoder config YAML")
	f.Float64Var(&fl.beam, "beam", decoder.DefaultConfig().BeamWidth, "beam width")
	f.IntVar(&fl.maxActive, "max-active", decoder.DefaultConfig().MaxActive, "maximum active tokens per frame")
	f.IntVar(&fl.minActive, "min-active", decoder.DefaultConfig().MinActive, "minimum active tokens per frame")
	f.Float64Var(&fl.acousticScale, "acoustic-scale", 1, "scale applied to log-likelihoods")
	f.IntVar(&fl.maxRetries, "max-retries", 2, "retries with a doubled beam after a failed search")
	f.IntVar(&fl.jobs, "jobs", runtime.NumCPU(), "utterances decoded in parallel")
	f.StringVar(&fl.gmm, "gmm", "", "Gaussian mixture model YAML; inputs are feature vectors")
	f.StringVar(&fl.phones, "phones", "", "input symbol table naming the --gmm states")
	f.StringVar(&fl.ref, "ref", "", "reference transcripts (\"<utterance> <word>...\") for a word error rate")
	return cmd
}

func maxInputLabel(f fst.Fst[semiring.Tropical]) fst.Label {
	var m fst.Label
	for s := range f.NumStates() {
		for a := range f.Arcs(s) {
			m = max(m, a.ILabel)
		}
	}
	return m
}

func runDecode(stdout, stderr io.Writer, graphPath string, inputs []string, cfg decoder.Config, fl decodeFlags) error {
	words, err := loadSymbols(fl.words)
	if err != nil {
		return err
	}
	graph, closer, err := wfst.LoadGraph(graphPath)
	if err != nil {
		return err
	}
	defer closer.Close()

	reg := prometheus.NewRegistry()
	opts := []wfst.Option{
		wfst.WithDecoderConfig(cfg),
		wfst.WithMaxRetries(fl.maxRetries),
		wfst.WithMetrics(decoder.NewMetrics(reg)),
	}
	if words != nil {
		opts = append(opts, wfst.WithOutputSymbols(words))
	}
	rec, err := wfst.NewRecognizer(graph, opts...)
	if err != nil {
		return err
	}
	needLabels := maxInputLabel(graph)

	var model *acoustic.Model
	if fl.gmm != "" {
		phones, err := loadSymbols(fl.phones)
		if err != nil {
			return err
		}
		if model, err = acoustic.LoadFile(fl.gmm, phones); err != nil {
			return err
		}
		model.Scale = fl.acousticScale
		logger.Info("loaded acoustic model",
			zap.String("path", fl.gmm),
			zap.Int("dim", model.Dim),
			zap.Int("states", len(model.Labels())))
	}

	utts := make([]utterance, len(inputs))
	var eg errgroup.Group
	eg.SetLimit(max(fl.jobs, 1))
	for i, path := range inputs {
		utts[i] = utterance{
			id:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			path: path,
		}
		eg.Go(func() error {
			return decodeOne(rec, &utts[i], model, needLabels, fl.acousticScale)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	failed := 0
	for _, u := range utts {
		if u.err != nil {
			failed++
			logger.Warn("utterance failed", zap.String("utt", u.id), zap.Error(u.err))
		}
		if _, err := fmt.Fprintln(stdout, strings.Join(append([]string{u.id}, u.words...), " ")); err != nil {
			return err
		}
	}
	logMetrics(reg)

	if fl.ref != "" {
		if err := reportErrorRate(stderr, fl.ref, utts); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d utterances failed", failed, len(utts))
	}
	return nil
}

// decodeOne records search failures on u; only unreadable input aborts the
// batch. A nil model means the input holds log-likelihoods.
func decodeOne(rec *wfst.Recognizer[semiring.Tropical], u *utterance, model *acoustic.Model, needLabels fst.Label, scale float64) error {
	f, err := os.Open(u.path)
	if err != nil {
		return err
	}
	defer f.Close()
	m, err := decoder.ReadFeatures(f)
	if err != nil {
		return fmt.Errorf("%s: %w", u.path, err)
	}
	var (
		features [][]float64
		scorer   decoder.Scorer
	)
	if model != nil {
		if len(m) > 0 && len(m[0]) != model.Dim {
			return fmt.Errorf("%s: %d columns, model dimension is %d", u.path, len(m[0]), model.Dim)
		}
		features, scorer = m, model
	} else {
		ms := decoder.NewMatrixScorer(m)
		ms.Scale = scale
		if len(m) > 0 && ms.NumLabels() < int(needLabels) {
			return fmt.Errorf("%s: %d columns, graph uses input label %d", u.path, ms.NumLabels(), needLabels)
		}
		scorer = ms
	}

	res, err := rec.Recognize(features, len(m), scorer)
	if err != nil {
		u.err = err
		return nil
	}
	u.words = res.Words
	if u.words == nil {
		for _, l := range res.Labels {
			u.words = append(u.words, fmt.Sprint(l))
		}
	}
	u.cost = res.Cost()
	logger.Debug("decoded",
		zap.String("utt", u.id),
		zap.Int("frames", res.Frames),
		zap.Float64("cost", u.cost),
		zap.Int("retries", res.Retries))
	return nil
}

func logMetrics(reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		logger.Warn("gather metrics", zap.Error(err))
		return
	}
	fields := make([]zap.Field, 0, len(families))
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				fields = append(fields, zap.Float64(mf.GetName(), m.GetCounter().GetValue()))
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				if n := h.GetSampleCount(); n > 0 {
					fields = append(fields, zap.Float64(mf.GetName()+"_mean", h.GetSampleSum()/float64(n)))
				}
			}
		}
	}
	logger.Info("decode summary", fields...)
}

func readReferences(path string) (map[string][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	refs := map[string][]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		refs[fields[0]] = fields[1:]
	}
	return refs, scanner.Err()
}

func reportErrorRate(w io.Writer, path string, utts []utterance) error {
	refs, err := readReferences(path)
	if err != nil {
		return err
	}
	edits, total, scored := 0, 0, 0
	for _, u := range utts {
		ref, ok := refs[u.id]
		if !ok {
			continue
		}
		e, _ := wfst.ErrorRate(ref, u.words)
		edits += e
		total += len(ref)
		scored++
	}
	rate := 0.0
	if total > 0 {
		rate = 100 * float64(edits) / float64(total)
	}
	_, err = fmt.Fprintf(w, "%%WER %.2f [ %d / %d, %d utterances ]\n", rate, edits, total, scored)
	return err
}
