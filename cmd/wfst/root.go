package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	wfst "github.com/ieee0824/wfst-go"
	"github.com/ieee0824/wfst-go/decoder"
	"github.com/ieee0824/wfst-go/fst"
	"github.com/ieee0824/wfst-go/fstio"
	"github.com/ieee0824/wfst-go/language"
	"github.com/ieee0824/wfst-go/symbols"
)

// logger is replaced by the root command before any subcommand runs.
var logger = zap.NewNop()

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:          "wfst",
		Short:        "Weighted finite-state transducer toolkit",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			logger = l
			fst.SetLogger(l.Named("fst"))
			fstio.SetLogger(l.Named("fstio"))
			decoder.SetLogger(l.Named("decoder"))
			language.SetLogger(l.Named("language"))
			wfst.SetLogger(l.Named("wfst"))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newCompileCmd(),
		newPrintCmd(),
		newInfoCmd(),
		newRmEpsilonCmd(),
		newDeterminizeCmd(),
		newMinimizeCmd(),
		newPushCmd(),
		newConnectCmd(),
		newComposeCmd(),
		newDecodeCmd(),
	)
	return root
}

// newLogger writes to stderr; debug level switches to the development
// encoder.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("bad --log-level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

func loadSymbols(path string) (*symbols.Table, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := symbols.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// textOptions loads the symbol tables named by the flags. Absent tables stay
// nil interfaces; an acceptor shares its input table.
func textOptions(acceptor bool, isyms, osyms string) (fstio.TextOptions, error) {
	opts := fstio.TextOptions{Acceptor: acceptor}
	it, err := loadSymbols(isyms)
	if err != nil {
		return opts, err
	}
	ot, err := loadSymbols(osyms)
	if err != nil {
		return opts, err
	}
	if it != nil {
		opts.ISymbols = it
	}
	if ot != nil {
		opts.OSymbols = ot
	}
	if acceptor && it != nil && ot == nil {
		opts.OSymbols = it
	}
	return opts, nil
}

func parseFormat(s string) (fstio.Format, error) {
	switch f := fstio.Format(s); f {
	case fstio.FormatVector, fstio.FormatConst:
		return f, nil
	}
	return "", fmt.Errorf("unknown fst type %q (want vector or const)", s)
}

// arcTypeOf reads the arc type from the header of path.
func arcTypeOf(path string) (string, error) {
	h, err := fstio.ReadFileHeader(path)
	if err != nil {
		return "", err
	}
	return h.ArcType, nil
}

func unsupportedArcType(arcType string) error {
	return fmt.Errorf("unsupported arc type %q (want %s or %s)",
		arcType, fstio.Tropical.ArcType, fstio.Log.ArcType)
}
