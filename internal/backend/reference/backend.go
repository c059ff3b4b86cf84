// Package reference implements the raw convolution execution primitives in
// pure Go. It is the backend the test suite runs against and a correctness
// baseline for vendor backends: outputs are pre-allocated and pre-validated
// by the dispatch layer, so the primitives here only compute.
//
// Rank-4 contiguous float32/float64 single-group forwards take an
// im2col+GEMM fast path (GEMM via gonum). Everything else (other ranks,
// grouped convolutions, channels-last layouts, float16) goes through a
// generic strided loop, with independent output slices split across
// goroutines. The execution flags are accepted for interface parity: this
// backend is always deterministic and never benchmarks.
package reference

import (
	"github.com/strata-ml/strata/internal/conv"
	"github.com/strata-ml/strata/internal/parallel"
	"github.com/strata-ml/strata/internal/tensor"
)

// Backend is the pure-Go execution backend.
type Backend struct {
	par parallel.Config
}

// New creates a reference backend sized to the machine.
func New() *Backend {
	return &Backend{par: parallel.DefaultConfig()}
}

// Name returns the backend name.
func (*Backend) Name() string {
	return "reference"
}

// Device returns the compute device the backend executes on.
func (*Backend) Device() tensor.Device {
	return tensor.CPU
}

// Forward computes out = conv(input, weight).
func (b *Backend) Forward(out, input, weight *tensor.RawTensor, geom conv.Geometry, flags conv.Flags) error {
	if im2colEligible(out, input, weight, geom) {
		return forwardIm2col(out, input, weight, geom)
	}
	forwardGeneric(out, input, weight, geom, b.par)
	return nil
}

// BackwardInput computes the gradient with respect to the forward input.
func (b *Backend) BackwardInput(gradInput, gradOutput, weight *tensor.RawTensor, geom conv.Geometry, flags conv.Flags) error {
	backwardInputGeneric(gradInput, gradOutput, weight, geom)
	return nil
}

// BackwardWeight computes the gradient with respect to the forward weight.
func (b *Backend) BackwardWeight(gradWeight, gradOutput, input *tensor.RawTensor, geom conv.Geometry, flags conv.Flags) error {
	backwardWeightGeneric(gradWeight, gradOutput, input, geom, b.par)
	return nil
}

var (
	_ conv.RawBackend           = (*Backend)(nil)
	_ conv.FusedBackend         = (*Backend)(nil)
	_ conv.FusedFallbackBackend = (*Backend)(nil)
)
