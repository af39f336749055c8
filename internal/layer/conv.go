package layer

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/volnet/internal/parallel"
	"github.com/born-ml/volnet/internal/volume"
)

// ConvConfig holds the hyperparameters of a ConvLayer.
type ConvConfig struct {
	Stride     int     // Spatial step of the sliding window (default: 1)
	Pad        int     // Zero padding applied on every side (default: 0)
	L1DecayMul float64 // L1 weighting for filters (default: 0)
	L2DecayMul float64 // L2 weighting for filters (default: 1)
	BiasPref   float64 // Initial bias value (default: 0)

	Init     Initializer       // Filter initialization (default: GaussianInit(nil))
	Executor parallel.Executor // Channel fan-out (default: parallel.Sequential{})
}

// DefaultConvConfig returns the default convolution hyperparameters.
func DefaultConvConfig() ConvConfig {
	return ConvConfig{
		Stride:     1,
		Pad:        0,
		L1DecayMul: 0,
		L2DecayMul: 1,
		BiasPref:   0,
		Init:       GaussianInit(nil),
		Executor:   parallel.Sequential{},
	}
}

// ConvLayer is a 2D convolution over volumes.
//
// Each of the filterCount filters has shape
// (filterWidth, filterHeight, inputDepth) and produces one output channel:
//
//	out(ax, ay, k) = bias[k] + sum_{fx,fy,fd} filter_k(fx, fy, fd) * in(ax*stride-pad+fx, ay*stride-pad+fy, fd)
//
// Taps that fall outside the input contribute zero. Output size is
//
//	outputWidth  = (inputWidth  + 2*pad - filterWidth)  / stride + 1
//	outputHeight = (inputHeight + 2*pad - filterHeight) / stride + 1
//
// using floor division, so a trailing partial window is dropped.
//
// Example:
//
//	conv := layer.NewConvLayer(5, 5, 6, layer.DefaultConvConfig())
//	conv.Init(28, 28, 1)
//	out := conv.Forward(image, true) // 24x24x6
type ConvLayer struct {
	Base

	filterWidth  int
	filterHeight int
	filterCount  int

	stride      int
	pad         int
	l1DecayMul  float64
	l2DecayMul  float64
	biasPref    float64
	initializer Initializer
	exec        parallel.Executor

	// Geometry frozen by Init.
	activeStride int
	activePad    int

	filters []*volume.Volume // filterCount x (filterWidth, filterHeight, inputDepth)
	bias    *volume.Volume   // (1, 1, filterCount)
}

// NewConvLayer creates a convolution layer with filterCount filters of
// filterWidth x filterHeight. Filters are allocated by Init.
//
// Non-positive filter dimensions or count panic with a *ConfigError.
func NewConvLayer(filterWidth, filterHeight, filterCount int, cfg ConvConfig) *ConvLayer {
	c := &ConvLayer{
		Base:         NewBase("conv"),
		filterWidth:  filterWidth,
		filterHeight: filterHeight,
		filterCount:  filterCount,
		stride:       cfg.Stride,
		pad:          cfg.Pad,
		l1DecayMul:   cfg.L1DecayMul,
		l2DecayMul:   cfg.L2DecayMul,
		biasPref:     cfg.BiasPref,
		initializer:  cfg.Init,
		exec:         cfg.Executor,
	}
	if c.initializer == nil {
		c.initializer = GaussianInit(nil)
	}
	if c.exec == nil {
		c.exec = parallel.Sequential{}
	}
	if err := c.validateFilters(); err != nil {
		panic(err)
	}
	return c
}

func (c *ConvLayer) validateFilters() error {
	switch {
	case c.filterWidth <= 0:
		return &ConfigError{Layer: c.Name(), Field: "filter width", Value: c.filterWidth, Reason: "must be positive"}
	case c.filterHeight <= 0:
		return &ConfigError{Layer: c.Name(), Field: "filter height", Value: c.filterHeight, Reason: "must be positive"}
	case c.filterCount <= 0:
		return &ConfigError{Layer: c.Name(), Field: "filter count", Value: c.filterCount, Reason: "must be positive"}
	}
	return nil
}

// Validate reports whether Init would accept the given input shape with the
// current hyperparameters.
func (c *ConvLayer) Validate(inputWidth, inputHeight, inputDepth int) error {
	if err := c.validateFilters(); err != nil {
		return err
	}
	if err := c.ValidateInput(inputWidth, inputHeight, inputDepth); err != nil {
		return err
	}
	if c.stride <= 0 {
		return &ConfigError{Layer: c.Name(), Field: "stride", Value: c.stride, Reason: "must be positive"}
	}
	if c.pad < 0 {
		return &ConfigError{Layer: c.Name(), Field: "pad", Value: c.pad, Reason: "must not be negative"}
	}
	if inputWidth+2*c.pad < c.filterWidth {
		return &ConfigError{
			Layer: c.Name(), Field: "input width", Value: inputWidth,
			Reason: fmt.Sprintf("padded width %d is smaller than filter width %d", inputWidth+2*c.pad, c.filterWidth),
		}
	}
	if inputHeight+2*c.pad < c.filterHeight {
		return &ConfigError{
			Layer: c.Name(), Field: "input height", Value: inputHeight,
			Reason: fmt.Sprintf("padded height %d is smaller than filter height %d", inputHeight+2*c.pad, c.filterHeight),
		}
	}
	return nil
}

// OutputSize returns the spatial output size for an input of the given
// size under the current stride and pad. The caller must ensure the padded
// input is at least as large as the filter.
func (c *ConvLayer) OutputSize(inputWidth, inputHeight int) (width, height int) {
	// Numerators are non-negative after Validate, so truncation equals floor.
	width = (inputWidth+2*c.pad-c.filterWidth)/c.stride + 1
	height = (inputHeight+2*c.pad-c.filterHeight)/c.stride + 1
	return width, height
}

// Init implements Layer.
//
// It freezes stride and pad, allocates filterCount fresh filters through
// the initializer and a bias volume filled with BiasPref. All parameter
// gradients start at zero. Calling Init again discards trained values.
func (c *ConvLayer) Init(inputWidth, inputHeight, inputDepth int) {
	if err := c.Validate(inputWidth, inputHeight, inputDepth); err != nil {
		panic(err)
	}
	c.InitBase(inputWidth, inputHeight, inputDepth)

	c.activeStride = c.stride
	c.activePad = c.pad
	outW, outH := c.OutputSize(inputWidth, inputHeight)
	c.SetOutputShape(outW, outH, c.filterCount)

	c.filters = make([]*volume.Volume, c.filterCount)
	for i := range c.filters {
		f := volume.New(c.filterWidth, c.filterHeight, inputDepth, 0)
		c.initializer(f)
		f.ZeroGradients()
		c.filters[i] = f
	}

	c.bias = volume.New(1, 1, c.filterCount, c.biasPref)
	c.bias.ZeroGradients()
}

// Forward implements Layer.
//
// Output channels are independent and are mapped over the layer executor.
func (c *ConvLayer) Forward(input *volume.Volume, isTraining bool) *volume.Volume {
	c.CheckInitialized("forward")
	c.CheckInput(input)

	output := volume.New(c.OutputWidth(), c.OutputHeight(), c.OutputDepth(), 0)
	c.exec.Map(c.filterCount, func(depth int) {
		c.forwardChannel(input, output, depth)
	})

	c.Retain(input, output, isTraining)
	return output
}

// forwardChannel writes output channel depth. It only writes indices owned
// by depth, so channels can run concurrently.
func (c *ConvLayer) forwardChannel(input, output *volume.Volume, depth int) {
	filter := c.filters[depth]
	fw, fh, fd := filter.Width(), filter.Height(), filter.Depth()
	fwts := filter.Weights()

	inW, inH := input.Width(), input.Height()
	in := input.Weights()

	outW, outH, outD := output.Width(), output.Height(), output.Depth()
	out := output.Weights()
	stride := c.activeStride
	bias := c.bias.Weights()[depth]

	y := -c.activePad
	for ay := 0; ay < outH; ay, y = ay+1, y+stride {
		x := -c.activePad
		for ax := 0; ax < outW; ax, x = ax+1, x+stride {
			a := 0.0
			for fy := 0; fy < fh; fy++ {
				oy := y + fy
				if oy < 0 || oy >= inH {
					continue
				}
				for fx := 0; fx < fw; fx++ {
					ox := x + fx
					if ox < 0 || ox >= inW {
						continue
					}
					// The depth axis is contiguous in both volumes.
					fi := ((fw * fy) + fx) * fd
					ii := ((inW * oy) + ox) * fd
					a += floats.Dot(fwts[fi:fi+fd], in[ii:ii+fd])
				}
			}
			out[((outW*ay)+ax)*outD+depth] = a + bias
		}
	}
}

// Backward implements Layer.
//
// The input gradient is zeroed and recomputed on every call. Filter and
// bias gradients accumulate until ZeroGradients.
func (c *ConvLayer) Backward() {
	input, output := c.CheckBackward()
	input.ZeroGradients()

	if !c.exec.Concurrent() {
		inGrad := input.Gradients()
		for depth := 0; depth < c.filterCount; depth++ {
			c.backwardChannel(input, output, inGrad, depth)
		}
		return
	}

	// Channels all write the shared input gradient, so each gets a private
	// buffer, merged in channel order after the join.
	scratch := make([][]float64, c.filterCount)
	c.exec.Map(c.filterCount, func(depth int) {
		buf := make([]float64, input.Len())
		c.backwardChannel(input, output, buf, depth)
		scratch[depth] = buf
	})
	inGrad := input.Gradients()
	for _, buf := range scratch {
		floats.Add(inGrad, buf)
	}
}

// backwardChannel routes the upstream gradient of channel depth into
// inGrad, the gradient of filter depth and bias[depth].
func (c *ConvLayer) backwardChannel(input, output *volume.Volume, inGrad []float64, depth int) {
	filter := c.filters[depth]
	fw, fh, fd := filter.Width(), filter.Height(), filter.Depth()
	fwts := filter.Weights()
	fgrad := filter.Gradients()

	inW, inH := input.Width(), input.Height()
	in := input.Weights()

	outW, outH, outD := output.Width(), output.Height(), output.Depth()
	chain := output.Gradients()
	stride := c.activeStride
	biasGrad := c.bias.Gradients()

	y := -c.activePad
	for ay := 0; ay < outH; ay, y = ay+1, y+stride {
		x := -c.activePad
		for ax := 0; ax < outW; ax, x = ax+1, x+stride {
			g := chain[((outW*ay)+ax)*outD+depth]
			for fy := 0; fy < fh; fy++ {
				oy := y + fy
				if oy < 0 || oy >= inH {
					continue
				}
				for fx := 0; fx < fw; fx++ {
					ox := x + fx
					if ox < 0 || ox >= inW {
						continue
					}
					fi := ((fw * fy) + fx) * fd
					ii := ((inW * oy) + ox) * fd
					// Overlapping windows revisit the same cells: accumulate.
					floats.AddScaled(fgrad[fi:fi+fd], g, in[ii:ii+fd])
					floats.AddScaled(inGrad[ii:ii+fd], g, fwts[fi:fi+fd])
				}
			}
			biasGrad[depth] += g
		}
	}
}

// GetParametersAndGradients implements Layer.
//
// It returns one entry per filter in index order, carrying the layer's
// decay multipliers, followed by the bias with zero decay.
func (c *ConvLayer) GetParametersAndGradients() []ParametersAndGradients {
	c.CheckInitialized("parameters")

	response := make([]ParametersAndGradients, 0, c.filterCount+1)
	for _, f := range c.filters {
		response = append(response, ParametersAndGradients{
			Parameters: f.Weights(),
			Gradients:  f.Gradients(),
			L1DecayMul: c.l1DecayMul,
			L2DecayMul: c.l2DecayMul,
		})
	}
	response = append(response, ParametersAndGradients{
		Parameters: c.bias.Weights(),
		Gradients:  c.bias.Gradients(),
		L1DecayMul: 0,
		L2DecayMul: 0,
	})
	return response
}

// ZeroGradients clears filter and bias gradients.
func (c *ConvLayer) ZeroGradients() {
	c.CheckInitialized("zero gradients")
	for _, f := range c.filters {
		f.ZeroGradients()
	}
	c.bias.ZeroGradients()
}

// Filters returns the filter volumes, or nil before Init.
func (c *ConvLayer) Filters() []*volume.Volume { return c.filters }

// Bias returns the bias volume, or nil before Init.
func (c *ConvLayer) Bias() *volume.Volume { return c.bias }

// FilterWidth returns the filter width.
func (c *ConvLayer) FilterWidth() int { return c.filterWidth }

// FilterHeight returns the filter height.
func (c *ConvLayer) FilterHeight() int { return c.filterHeight }

// FilterCount returns the number of filters (output channels).
func (c *ConvLayer) FilterCount() int { return c.filterCount }

// Stride returns the configured stride.
func (c *ConvLayer) Stride() int { return c.stride }

// Pad returns the configured padding.
func (c *ConvLayer) Pad() int { return c.pad }

// L1DecayMul returns the L1 multiplier applied to filters.
func (c *ConvLayer) L1DecayMul() float64 { return c.l1DecayMul }

// L2DecayMul returns the L2 multiplier applied to filters.
func (c *ConvLayer) L2DecayMul() float64 { return c.l2DecayMul }

// BiasPref returns the initial bias value.
func (c *ConvLayer) BiasPref() float64 { return c.biasPref }

// SetStride sets the stride used by the next Init.
func (c *ConvLayer) SetStride(stride int) { c.stride = stride }

// SetPad sets the padding used by the next Init.
func (c *ConvLayer) SetPad(pad int) { c.pad = pad }

// SetBiasPref sets the bias value used by the next Init.
func (c *ConvLayer) SetBiasPref(v float64) { c.biasPref = v }

// SetL1DecayMul sets the L1 multiplier reported for filters.
func (c *ConvLayer) SetL1DecayMul(v float64) { c.l1DecayMul = v }

// SetL2DecayMul sets the L2 multiplier reported for filters.
func (c *ConvLayer) SetL2DecayMul(v float64) { c.l2DecayMul = v }

// SetExecutor sets the executor used for the channel fan-out.
// A nil executor selects parallel.Sequential.
func (c *ConvLayer) SetExecutor(exec parallel.Executor) {
	if exec == nil {
		exec = parallel.Sequential{}
	}
	c.exec = exec
}

// String returns a string representation of the layer.
func (c *ConvLayer) String() string {
	return fmt.Sprintf("ConvLayer(filters=%d, filter_size=(%d, %d), stride=%d, pad=%d)",
		c.filterCount, c.filterWidth, c.filterHeight, c.stride, c.pad)
}
