package conv

import (
	"github.com/strata-ml/strata/internal/tensor"
)

// ConvBiasReLU computes relu(conv(input, weight) + bias) through the fused
// backend primitive. A nil bias is synthesized as zeros of shape
// [outChannels]. The fused primitive's residual term is fed the output
// tensor itself with its scale forced to zero, degenerating the op to
// conv+bias+relu; the backend never reads the residual at alpha zero.
func (d *Dispatcher) ConvBiasReLU(input, weight, bias *tensor.RawTensor, stride, padding, dilation []int, groups int) (*tensor.RawTensor, error) {
	out, inputC, weightC, err := d.fusedPrologue("conv_bias_relu", input, weight, padding, stride, dilation, groups)
	if err != nil || out == nil || out.NumElements() == 0 {
		return out, err
	}

	biasT, err := d.ensureBias(bias, out)
	if err != nil {
		return nil, err
	}

	geom := Geometry{Padding: padding, Stride: stride, Dilation: dilation, Groups: groups}
	if err := d.fused(out, inputC, weightC, out, 0, biasT, geom, d.fusedFlags()); err != nil {
		return nil, d.backendError("conv_bias_relu", err, input, weight, padding, stride, dilation, groups)
	}
	return out, nil
}

// ConvBiasAddReLU computes relu(conv(input, weight) + bias + alpha*z) with
// a genuine residual tensor z. A nil alpha defaults to 1; a nil bias is
// synthesized as zeros of shape [outChannels].
func (d *Dispatcher) ConvBiasAddReLU(input, weight, z *tensor.RawTensor, alpha *float64, bias *tensor.RawTensor, stride, padding, dilation []int, groups int) (*tensor.RawTensor, error) {
	out, inputC, weightC, err := d.fusedPrologue("conv_bias_add_relu", input, weight, padding, stride, dilation, groups)
	if err != nil || out == nil || out.NumElements() == 0 {
		return out, err
	}

	biasT, err := d.ensureBias(bias, out)
	if err != nil {
		return nil, err
	}
	scale := 1.0
	if alpha != nil {
		scale = *alpha
	}

	geom := Geometry{Padding: padding, Stride: stride, Dilation: dilation, Groups: groups}
	if err := d.fused(out, inputC, weightC, z, scale, biasT, geom, d.fusedFlags()); err != nil {
		return nil, d.backendError("conv_bias_add_relu", err, input, weight, padding, stride, dilation, groups)
	}
	return out, nil
}

// fusedPrologue is the shared front half of both fused entry points:
// strategy presence check, validation, format resolution, operand
// repacking, output allocation and the degenerate-shape short-circuit.
func (d *Dispatcher) fusedPrologue(from string, input, weight *tensor.RawTensor, padding, stride, dilation []int, groups int) (out, inputC, weightC *tensor.RawTensor, err error) {
	if d.fused == nil {
		return nil, nil, nil, unsupportedf("backend %s exposes no fused conv+add+relu primitive", d.backend.Name())
	}

	inputA := tensor.NewArg(input, "input", 1)
	weightA := tensor.NewArg(weight, "weight", 2)
	if err := checkSameDType(from, inputA, weightA); err != nil {
		return nil, nil, nil, err
	}
	if err := checkSameDevice(from, inputA, weightA); err != nil {
		return nil, nil, nil, err
	}

	format := suggestMemoryFormat(input, weight)
	outShape, err := outputSize(input.Shape(), weight.Shape(), padding, stride, dilation)
	if err != nil {
		return nil, nil, nil, err
	}
	out, err = d.alloc.Empty(outShape, input.DType(), input.Device(), format)
	if err != nil {
		return nil, nil, nil, err
	}
	if out.NumElements() == 0 {
		return out, nil, nil, nil
	}

	result := tensor.NewArg(out, "result", 0)
	if err := convolutionShapeCheck(from, inputA, weightA, result, padding, stride, dilation, groups); err != nil {
		return nil, nil, nil, err
	}

	weightC = weight.Contiguous(format)
	inputC = input.Contiguous(format)
	return out, inputC, weightC, nil
}

// ensureBias returns the supplied bias or synthesizes an all-zero one of
// shape [outChannels].
func (d *Dispatcher) ensureBias(bias *tensor.RawTensor, out *tensor.RawTensor) (*tensor.RawTensor, error) {
	if bias != nil {
		return bias, nil
	}
	return d.alloc.Zeros(tensor.Shape{out.Size(1)}, out.DType(), out.Device(), tensor.Contiguous)
}

// fusedFlags pins benchmark and deterministic off for fused dispatch, as
// the fused primitives are epilogue kernels with no algorithm search;
// only the tf32 policy passes through.
func (d *Dispatcher) fusedFlags() Flags {
	return Flags{
		Benchmark:     false,
		Deterministic: false,
		AllowTF32:     d.policy.AllowTF32,
	}
}
