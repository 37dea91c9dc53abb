package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/zeebo/blake3"

	"github.com/ieee0824/wfst-go/fst"
	"github.com/ieee0824/wfst-go/fstio"
	"github.com/ieee0824/wfst-go/semiring"
)

func newCompileCmd() *cobra.Command {
	var (
		acceptor     bool
		isyms, osyms string
		arcType      string
		fstType      string
	)
	cmd := &cobra.Command{
		Use:   "compile <text> <out.fst>",
		Short: "Compile a transducer from the AT&T text format",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(fstType)
			if err != nil {
				return err
			}
			opts, err := textOptions(acceptor, isyms, osyms)
			if err != nil {
				return err
			}
			switch arcType {
			case fstio.Tropical.ArcType:
				return compileAs(args[0], args[1], fstio.Tropical, opts, format)
			case fstio.Log.ArcType:
				return compileAs(args[0], args[1], fstio.Log, opts, format)
			}
			return unsupportedArcType(arcType)
		},
	}
	cmd.Flags().BoolVar(&acceptor, "acceptor", false, "lines carry one label per arc")
	cmd.Flags().StringVar(&isyms, "isymbols", "", "input symbol table")
	cmd.Flags().StringVar(&osyms, "osymbols", "", "output symbol table")
	cmd.Flags().StringVar(&arcType, "arc-type", fstio.Tropical.ArcType, "arc type (standard, log)")
	cmd.Flags().StringVar(&fstType, "fst-type", string(fstio.FormatVector), "container (vector, const)")
	return cmd
}

func compileAs[W semiring.Weight[W]](in, out string, codec fstio.WeightCodec[W], opts fstio.TextOptions, format fstio.Format) error {
	r, err := os.Open(in)
	if err != nil {
		return err
	}
	defer r.Close()
	f, err := fstio.ReadText[W](r, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	return fstio.WriteFile[W](out, f, codec, format)
}

func newPrintCmd() *cobra.Command {
	var (
		acceptor     bool
		isyms, osyms string
	)
	cmd := &cobra.Command{
		Use:   "print <in.fst>",
		Short: "Print a transducer in the AT&T text format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := textOptions(acceptor, isyms, osyms)
			if err != nil {
				return err
			}
			arcType, err := arcTypeOf(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			switch arcType {
			case fstio.Tropical.ArcType:
				return printAs(w, args[0], fstio.Tropical, opts)
			case fstio.Log.ArcType:
				return printAs(w, args[0], fstio.Log, opts)
			}
			return unsupportedArcType(arcType)
		},
	}
	cmd.Flags().BoolVar(&acceptor, "acceptor", false, "print one label per arc")
	cmd.Flags().StringVar(&isyms, "isymbols", "", "input symbol table")
	cmd.Flags().StringVar(&osyms, "osymbols", "", "output symbol table")
	return cmd
}

func printAs[W semiring.Weight[W]](w io.Writer, in string, codec fstio.WeightCodec[W], opts fstio.TextOptions) error {
	f, err := fstio.Open(in, codec)
	if err != nil {
		return err
	}
	return fstio.WriteText(w, f, opts)
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <in.fst>",
		Short: "Print header, size and structural properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := fstio.ReadFileHeader(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			switch h.ArcType {
			case fstio.Tropical.ArcType:
				return infoAs(w, args[0], h, fstio.Tropical)
			case fstio.Log.ArcType:
				return infoAs(w, args[0], h, fstio.Log)
			}
			return unsupportedArcType(h.ArcType)
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func infoAs[W semiring.Weight[W]](w io.Writer, path string, h *fstio.Header, codec fstio.WeightCodec[W]) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	f, err := fstio.Open(path, codec)
	if err != nil {
		return err
	}

	// The digest covers the vector encoding so it does not depend on the
	// container or compression of the file.
	hasher := blake3.New()
	if err := fstio.WriteVector(hasher, f, codec); err != nil {
		return err
	}

	finals, iepsilons := 0, 0
	for s := range f.NumStates() {
		if fst.IsFinal(f, s) {
			finals++
		}
		for a := range f.Arcs(s) {
			if a.ILabel == fst.Epsilon {
				iepsilons++
			}
		}
	}

	rows := []struct {
		key string
		val any
	}{
		{"file", path},
		{"size", humanize.Bytes(uint64(st.Size()))},
		{"fst type", h.FstType},
		{"arc type", h.ArcType},
		{"version", h.Version},
		{"states", humanize.Comma(int64(f.NumStates()))},
		{"arcs", humanize.Comma(int64(fst.NumArcsTotal(f)))},
		{"start", fst.Start(f)},
		{"final states", finals},
		{"input epsilons", iepsilons},
		{"acceptor", yesNo(fst.IsAcceptor(f))},
		{"deterministic", yesNo(fst.IsDeterministic(f))},
		{"acyclic", yesNo(fst.IsAcyclic(f))},
		{"blake3", hex.EncodeToString(hasher.Sum(nil))},
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%-16s%v\n", r.key, r.val); err != nil {
			return err
		}
	}
	return nil
}
