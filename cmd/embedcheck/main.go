// Package main provides the embedcheck CLI, which validates embedding
// option combinations without building a table.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/embedbag/backend/cpu"
	"github.com/born-ml/embedbag/nn"
	"github.com/born-ml/embedbag/tensor"
)

const version = "v0.1.0-dev"

var errUsage = errors.New("usage")

func main() {
	err := run(os.Args[1:], os.Stdout)
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "invalid options: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		printUsage(out)
		return nil
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(out, "embedcheck %s\n", version)
		return nil
	case "validate":
		return validate(args[1:], out)
	default:
		fmt.Fprintf(out, "unknown command %q\n\n", args[0])
		printUsage(out)
		return errUsage
	}
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "embedcheck - validate Embedding and EmbeddingBag options")
	fmt.Fprintf(out, "Version: %s\n\n", version)
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  version    Show version")
	fmt.Fprintln(out, "  validate   Check an option combination (see validate -h)")
}

// validateFlags mirrors the option fields. Optional values are only applied
// when the flag was given on the command line.
type validateFlags struct {
	kind            string
	num, dim        int
	paddingIdx      int
	maxNorm         float64
	normType        float64
	scaleGradByFreq bool
	sparse          bool
	mode            string
	set             map[string]bool
}

func parseValidateFlags(args []string, out io.Writer) (*validateFlags, error) {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(out)

	f := &validateFlags{}
	fs.StringVar(&f.kind, "kind", "embedding", "Option kind: embedding or bag")
	fs.IntVar(&f.num, "num", 0, "Number of embeddings (rows)")
	fs.IntVar(&f.dim, "dim", 0, "Embedding dimension (columns)")
	fs.IntVar(&f.paddingIdx, "padding-idx", 0, "Padding index (embedding only)")
	fs.Float64Var(&f.maxNorm, "max-norm", 0, "Maximum row norm")
	fs.Float64Var(&f.normType, "norm-type", 2, "p of the p-norm used with -max-norm")
	fs.BoolVar(&f.scaleGradByFreq, "scale-grad-by-freq", false, "Scale gradients by inverse index frequency")
	fs.BoolVar(&f.sparse, "sparse", false, "Produce row-sparse weight gradients")
	fs.StringVar(&f.mode, "mode", "mean", "Bag reduction: sum, mean or max (bag only)")

	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}

	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

func validate(args []string, out io.Writer) error {
	f, err := parseValidateFlags(args, out)
	if err != nil {
		return err
	}

	switch f.kind {
	case "embedding":
		return validateEmbedding(f, out)
	case "bag":
		return validateBag(f, out)
	default:
		fmt.Fprintf(out, "unknown kind %q (want embedding or bag)\n", f.kind)
		return errUsage
	}
}

func validateEmbedding(f *validateFlags, out io.Writer) error {
	opts, err := nn.NewEmbeddingOptions[*cpu.Backend](f.num, f.dim)
	if err != nil {
		return err
	}
	if f.set["padding-idx"] {
		opts.WithPaddingIdx(f.paddingIdx)
	}
	if f.set["max-norm"] {
		opts.WithMaxNorm(float32(f.maxNorm))
	}
	opts.WithNormType(float32(f.normType)).
		WithScaleGradByFreq(f.scaleGradByFreq).
		WithSparse(f.sparse)

	if err := opts.Validate(); err != nil {
		return err
	}

	fmt.Fprintf(out, "Embedding(%d, %d)\n", opts.NumEmbeddings(), opts.EmbeddingDim())
	if idx, ok := opts.ResolvedPaddingIdx(); ok {
		fmt.Fprintf(out, "  padding_idx:        %d\n", idx)
	}
	printCommon(out, opts.WeightShape(), opts.MaxNorm, opts.NormType(), opts.ScaleGradByFreq(), opts.Sparse())
	return nil
}

func validateBag(f *validateFlags, out io.Writer) error {
	if f.set["padding-idx"] {
		fmt.Fprintln(out, "-padding-idx is not an EmbeddingBag option")
		return errUsage
	}

	mode, err := tensor.ParseBagMode(f.mode)
	if err != nil {
		return err
	}

	opts, err := nn.NewEmbeddingBagOptions[*cpu.Backend](f.num, f.dim)
	if err != nil {
		return err
	}
	if f.set["max-norm"] {
		opts.WithMaxNorm(float32(f.maxNorm))
	}
	opts.WithNormType(float32(f.normType)).
		WithScaleGradByFreq(f.scaleGradByFreq).
		WithSparse(f.sparse).
		WithMode(mode)

	if err := opts.Validate(); err != nil {
		return err
	}

	fmt.Fprintf(out, "EmbeddingBag(%d, %d)\n", opts.NumEmbeddings(), opts.EmbeddingDim())
	fmt.Fprintf(out, "  mode:               %s\n", opts.Mode())
	printCommon(out, opts.WeightShape(), opts.MaxNorm, opts.NormType(), opts.ScaleGradByFreq(), opts.Sparse())
	return nil
}

func printCommon(out io.Writer, shape tensor.Shape, maxNorm func() (float32, bool), normType float32, scale, sparse bool) {
	if v, ok := maxNorm(); ok {
		fmt.Fprintf(out, "  max_norm:           %g\n", v)
	}
	fmt.Fprintf(out, "  norm_type:          %g\n", normType)
	fmt.Fprintf(out, "  scale_grad_by_freq: %t\n", scale)
	fmt.Fprintf(out, "  sparse:             %t\n", sparse)
	fmt.Fprintf(out, "  weight shape:       %v\n", shape)
}
