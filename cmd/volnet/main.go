// Package main provides the volnet CLI.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/volnet/nn"
	"github.com/born-ml/volnet/volume"
)

const version = "v0.1.0-dev"

func main() {
	log.SetFlags(0)
	log.SetPrefix("volnet: ")

	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, w io.Writer) error {
	if len(args) == 0 {
		usage(w)
		return nil
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(w, "volnet %s\n", version)
		return nil
	case "shape":
		return runShape(args[1:], w)
	case "demo":
		return runDemo(args[1:], w)
	case "help", "-h", "--help":
		usage(w)
		return nil
	default:
		usage(w)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "volnet - volume-based convolution engine")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "  shape      Infer the output shape of a conv layer")
	fmt.Fprintln(w, "  demo       Run a forward/backward pass on a known input")
}

// runShape prints the output shape and parameter count of a conv layer.
func runShape(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("shape", flag.ContinueOnError)
	fs.SetOutput(w)
	in := fs.String("in", "28x28x1", "Input shape WxHxD")
	filter := fs.String("filter", "5x5", "Filter size WxH")
	count := fs.Int("count", 6, "Number of filters (output depth)")
	stride := fs.Int("stride", 1, "Stride of the sliding window")
	pad := fs.Int("pad", 0, "Zero padding on every side")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dims, err := parseDims(*in, 3)
	if err != nil {
		return fmt.Errorf("-in: %w", err)
	}
	fdims, err := parseDims(*filter, 2)
	if err != nil {
		return fmt.Errorf("-filter: %w", err)
	}

	conv, err := newConv(fdims[0], fdims[1], *count, *stride, *pad)
	if err != nil {
		return err
	}
	if err := conv.Validate(dims[0], dims[1], dims[2]); err != nil {
		return err
	}
	conv.Init(dims[0], dims[1], dims[2])

	params := 0
	for _, pg := range conv.GetParametersAndGradients() {
		params += len(pg.Parameters)
	}

	fmt.Fprintf(w, "%v\n", conv)
	fmt.Fprintf(w, "input:  %dx%dx%d\n", dims[0], dims[1], dims[2])
	fmt.Fprintf(w, "output: %dx%dx%d\n", conv.OutputWidth(), conv.OutputHeight(), conv.OutputDepth())
	fmt.Fprintf(w, "params: %d\n", params)
	return nil
}

// newConv builds a conv layer, turning constructor panics on invalid
// filter sizes into errors.
func newConv(fw, fh, count, stride, pad int) (conv *nn.ConvLayer, err error) {
	defer func() {
		if r := recover(); r != nil {
			var cfgErr *nn.ConfigError
			if e, ok := r.(error); ok && errors.As(e, &cfgErr) {
				err = e
				return
			}
			panic(r)
		}
	}()

	cfg := nn.DefaultConvConfig()
	cfg.Stride = stride
	cfg.Pad = pad
	return nn.NewConvLayer(fw, fh, count, cfg), nil
}

// runDemo runs a 5x5 all-ones input through one 3x3 all-ones filter and
// reports the output and the gradients for an all-ones upstream gradient.
func runDemo(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	fs.SetOutput(w)
	parallel := fs.Bool("parallel", false, "Fan output channels out over the default executor")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := nn.DefaultConvConfig()
	cfg.Init = nn.ConstantInit(1)
	if *parallel {
		cfg.Executor = nn.DefaultExecutor()
	}
	conv := nn.NewConvLayer(3, 3, 1, cfg)
	conv.Init(5, 5, 1)

	input := volume.New(5, 5, 1, 1)
	out := conv.Forward(input, true)

	fmt.Fprintf(w, "%v\n", conv)
	fmt.Fprintf(w, "input %v -> output %v\n", input, out)
	printGrid(w, "output", out.Width(), out.Height(), out.Get)

	for y := 0; y < out.Height(); y++ {
		for x := 0; x < out.Width(); x++ {
			out.SetGradient(x, y, 0, 1)
		}
	}
	conv.Backward()

	filter := conv.Filters()[0]
	printGrid(w, "filter gradient", filter.Width(), filter.Height(), filter.GetGradient)
	printGrid(w, "input gradient", input.Width(), input.Height(), input.GetGradient)
	fmt.Fprintf(w, "bias gradient: %g\n", conv.Bias().Gradients()[0])
	return nil
}

func printGrid(w io.Writer, title string, width, height int, at func(x, y, d int) float64) {
	fmt.Fprintf(w, "%s:\n", title)
	for y := 0; y < height; y++ {
		cells := make([]string, width)
		for x := 0; x < width; x++ {
			cells[x] = fmt.Sprintf("%4g", at(x, y, 0))
		}
		fmt.Fprintf(w, "  %s\n", strings.Join(cells, " "))
	}
}

// parseDims parses "AxBxC" into n positive integers.
func parseDims(s string, n int) ([]int, error) {
	parts := strings.Split(s, "x")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d dimensions in %q", n, s)
	}
	dims := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("dimension %d of %q: %w", i, s, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("dimension %d of %q must be positive, got %d", i, s, v)
		}
		dims[i] = v
	}
	return dims, nil
}
