package conv

import (
	"github.com/strata-ml/strata/internal/tensor"
)

// Geometry carries the per-call convolution parameters every raw primitive
// receives alongside its tensors.
type Geometry struct {
	Padding  []int
	Stride   []int
	Dilation []int
	Groups   int
}

// Flags carries the execution policy bits sampled at dispatch time.
type Flags struct {
	Benchmark     bool
	Deterministic bool
	AllowTF32     bool
}

// Policy is the process-wide, read-only configuration a Dispatcher is
// constructed with. Passing it explicitly (rather than reading ambient
// global state) keeps dispatchers pure functions of their arguments.
type Policy struct {
	AllowTF32       bool
	AllowTF32Matmul bool
	Benchmark       bool
	Deterministic   bool
	DeviceID        int32
}

// RawBackend is the vendor execution primitive set. Every primitive takes a
// pre-allocated, correctly sized output and operands already repacked into
// one consistent memory format. Primitives never allocate and never
// validate; that responsibility lives entirely in this package.
type RawBackend interface {
	// Forward computes out = conv(input, weight).
	Forward(out, input, weight *tensor.RawTensor, geom Geometry, flags Flags) error

	// BackwardInput computes gradInput = conv-gradient of gradOutput with
	// respect to the forward input, using weight.
	BackwardInput(gradInput, gradOutput, weight *tensor.RawTensor, geom Geometry, flags Flags) error

	// BackwardWeight computes gradWeight = conv-gradient of gradOutput
	// with respect to the forward weight, using input.
	BackwardWeight(gradWeight, gradOutput, input *tensor.RawTensor, geom Geometry, flags Flags) error

	// Name identifies the backend in logs and diagnostics.
	Name() string
}

// FusedBackend is the optional fused conv+add+relu primitive:
// out = relu(conv(input, weight) + bias + alpha*z).
// bias has shape [outChannels]; z matches the output shape.
type FusedBackend interface {
	ConvAddReLU(out, input, weight, z *tensor.RawTensor, alpha float64, bias *tensor.RawTensor, geom Geometry, flags Flags) error
}

// FusedFallbackBackend carries the alternate fused primitive with a
// contract identical to FusedBackend's; backends built against older vendor
// libraries expose this one instead. Both must produce bit-for-bit
// identical results.
type FusedFallbackBackend interface {
	ConvAddReLUFallback(out, input, weight, z *tensor.RawTensor, alpha float64, bias *tensor.RawTensor, geom Geometry, flags Flags) error
}
