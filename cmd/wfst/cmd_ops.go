package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ieee0824/wfst-go/fst"
	"github.com/ieee0824/wfst-go/fstio"
	"github.com/ieee0824/wfst-go/semiring"
)

// unaryOp is one algorithm instantiated for both supported weight types.
type unaryOp struct {
	tropical func(fst.Fst[semiring.Tropical]) (*fst.VectorFst[semiring.Tropical], error)
	log      func(fst.Fst[semiring.Log]) (*fst.VectorFst[semiring.Log], error)
}

func transform[W semiring.Weight[W]](in, out string, codec fstio.WeightCodec[W], format fstio.Format,
	op func(fst.Fst[W]) (*fst.VectorFst[W], error)) error {
	f, err := fstio.Open(in, codec)
	if err != nil {
		return err
	}
	res, err := op(f)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	logger.Info("transformed",
		zap.String("in", in),
		zap.Int("states_in", f.NumStates()),
		zap.Int("states_out", res.NumStates()),
		zap.Int("arcs_out", fst.NumArcsTotal[W](res)))
	return fstio.WriteFile[W](out, res, codec, format)
}

// newUnaryCmd builds a command of the form "name <in.fst> <out.fst>".
func newUnaryCmd(name, short string, op func() unaryOp) *cobra.Command {
	var fstType string
	cmd := &cobra.Command{
		Use:   name + " <in.fst> <out.fst>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(fstType)
			if err != nil {
				return err
			}
			arcType, err := arcTypeOf(args[0])
			if err != nil {
				return err
			}
			ops := op()
			switch arcType {
			case fstio.Tropical.ArcType:
				return transform(args[0], args[1], fstio.Tropical, format, ops.tropical)
			case fstio.Log.ArcType:
				return transform(args[0], args[1], fstio.Log, format, ops.log)
			}
			return unsupportedArcType(arcType)
		},
	}
	cmd.Flags().StringVar(&fstType, "fst-type", string(fstio.FormatVector), "output container (vector, const)")
	return cmd
}

func newRmEpsilonCmd() *cobra.Command {
	cmd := newUnaryCmd("rmepsilon", "Remove epsilon transitions", func() unaryOp {
		return unaryOp{
			tropical: func(f fst.Fst[semiring.Tropical]) (*fst.VectorFst[semiring.Tropical], error) {
				return fst.RmEpsilon(f), nil
			},
			log: func(f fst.Fst[semiring.Log]) (*fst.VectorFst[semiring.Log], error) {
				return fst.RmEpsilon(f), nil
			},
		}
	})
	return cmd
}

func newDeterminizeCmd() *cobra.Command {
	var opts fst.DeterminizeOptions
	cmd := newUnaryCmd("determinize", "Determinize a weighted transducer", func() unaryOp {
		return unaryOp{
			tropical: func(f fst.Fst[semiring.Tropical]) (*fst.VectorFst[semiring.Tropical], error) {
				return fst.Determinize(f, opts)
			},
			log: func(f fst.Fst[semiring.Log]) (*fst.VectorFst[semiring.Log], error) {
				return fst.Determinize(f, opts)
			},
		}
	})
	cmd.Flags().IntVar(&opts.StateLimit, "state-limit", 0, "fail when the result exceeds this many states (0 = no limit)")
	return cmd
}

func newMinimizeCmd() *cobra.Command {
	cmd := newUnaryCmd("minimize", "Minimize a deterministic transducer", func() unaryOp {
		return unaryOp{
			tropical: func(f fst.Fst[semiring.Tropical]) (*fst.VectorFst[semiring.Tropical], error) {
				return fst.Minimize(f)
			},
			log: func(f fst.Fst[semiring.Log]) (*fst.VectorFst[semiring.Log], error) {
				return fst.Minimize(f)
			},
		}
	})
	return cmd
}

func pushed[W semiring.Weight[W]](f fst.Fst[W]) (*fst.VectorFst[W], error) {
	v := fst.Copy(f)
	fst.Push[W](v)
	return v, nil
}

func newPushCmd() *cobra.Command {
	cmd := newUnaryCmd("push", "Push weights toward the initial state", func() unaryOp {
		return unaryOp{
			tropical: pushed[semiring.Tropical],
			log:      pushed[semiring.Log],
		}
	})
	return cmd
}

func newConnectCmd() *cobra.Command {
	cmd := newUnaryCmd("connect", "Remove states not on a successful path", func() unaryOp {
		return unaryOp{
			tropical: func(f fst.Fst[semiring.Tropical]) (*fst.VectorFst[semiring.Tropical], error) {
				return fst.Connect(f), nil
			},
			log: func(f fst.Fst[semiring.Log]) (*fst.VectorFst[semiring.Log], error) {
				return fst.Connect(f), nil
			},
		}
	})
	return cmd
}

func composeFilter[W semiring.Weight[W]](name string) (fst.ComposeFilter[W], error) {
	switch name {
	case "sequence":
		return fst.SequenceFilter[W]{}, nil
	case "match":
		return fst.MatchFilter[W]{}, nil
	case "naive":
		return fst.NaiveFilter[W]{}, nil
	}
	return nil, fmt.Errorf("unknown compose filter %q (want sequence, match or naive)", name)
}

func composeAs[W semiring.Weight[W]](a, b, out string, codec fstio.WeightCodec[W], format fstio.Format, filterName string, connect bool) error {
	filter, err := composeFilter[W](filterName)
	if err != nil {
		return err
	}
	f1, err := fstio.Open(a, codec)
	if err != nil {
		return err
	}
	f2, err := fstio.Open(b, codec)
	if err != nil {
		return err
	}
	res := fst.Compose(f1, f2, filter)
	if connect {
		res = fst.Connect[W](res)
	}
	return fstio.WriteFile[W](out, res, codec, format)
}

func newComposeCmd() *cobra.Command {
	var (
		filter  string
		connect bool
		fstType string
	)
	cmd := &cobra.Command{
		Use:   "compose <a.fst> <b.fst> <out.fst>",
		Short: "Compose two transducers",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(fstType)
			if err != nil {
				return err
			}
			arcA, err := arcTypeOf(args[0])
			if err != nil {
				return err
			}
			arcB, err := arcTypeOf(args[1])
			if err != nil {
				return err
			}
			if arcA != arcB {
				return fmt.Errorf("arc types differ: %s vs %s", arcA, arcB)
			}
			switch arcA {
			case fstio.Tropical.ArcType:
				return composeAs(args[0], args[1], args[2], fstio.Tropical, format, filter, connect)
			case fstio.Log.ArcType:
				return composeAs(args[0], args[1], args[2], fstio.Log, format, filter, connect)
			}
			return unsupportedArcType(arcA)
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "sequence", "epsilon filter (sequence, match, naive)")
	cmd.Flags().BoolVar(&connect, "connect", true, "trim the result")
	cmd.Flags().StringVar(&fstType, "fst-type", string(fstio.FormatVector), "output container (vector, const)")
	return cmd
}
