package conv

import (
	"github.com/strata-ml/strata/internal/tensor"
)

// Forward runs plain forward convolution: validates operands, computes the
// output shape, allocates the result in the resolved memory format and
// dispatches the raw forward primitive into it.
func (d *Dispatcher) Forward(input, weight *tensor.RawTensor, padding, stride, dilation []int, groups int) (*tensor.RawTensor, error) {
	return d.forward("conv_forward",
		tensor.NewArg(input, "input", 1),
		tensor.NewArg(weight, "weight", 2),
		padding, stride, dilation, groups)
}

// TransposeBackwardInput computes the gradient of transposed convolution
// with respect to its input. Transposed convolution is the gradient of
// forward convolution, so its input gradient is exactly a forward pass of
// gradOutput against the weight; no output_padding is needed because there
// is no size ambiguity in this direction.
func (d *Dispatcher) TransposeBackwardInput(gradOutput, weight *tensor.RawTensor, padding, stride, dilation []int, groups int) (*tensor.RawTensor, error) {
	return d.forward("conv_transpose_backward_input",
		tensor.NewArg(gradOutput, "grad_output", 1),
		tensor.NewArg(weight, "weight", 2),
		padding, stride, dilation, groups)
}

// forward is the shared forward-direction primitive dispatch. The from
// label distinguishes the two public entry points in error messages.
func (d *Dispatcher) forward(from string, input, weight tensor.Arg, padding, stride, dilation []int, groups int) (*tensor.RawTensor, error) {
	if err := checkSameDType(from, input, weight); err != nil {
		return nil, err
	}
	if err := checkSameDevice(from, input, weight); err != nil {
		return nil, err
	}

	format := suggestMemoryFormat(input.T, weight.T)
	outShape, err := outputSize(input.T.Shape(), weight.T.Shape(), padding, stride, dilation)
	if err != nil {
		return nil, err
	}
	out, err := d.alloc.Empty(outShape, input.T.DType(), input.T.Device(), format)
	if err != nil {
		return nil, err
	}

	// Degenerate shapes need no computation at all.
	if out.NumElements() == 0 {
		return out, nil
	}

	// "result", not "output": the same tensor plays grad-input when this
	// path serves transposed-convolution backward.
	result := tensor.NewArg(out, "result", 0)
	if err := convolutionShapeCheck(from, input, weight, result, padding, stride, dilation, groups); err != nil {
		return nil, err
	}

	weightC := weight.T.Contiguous(format)
	inputC := input.T.Contiguous(format)

	geom := Geometry{Padding: padding, Stride: stride, Dilation: dilation, Groups: groups}
	if err := d.backend.Forward(out, inputC, weightC, geom, d.flags()); err != nil {
		return nil, d.backendError(from, err, input.T, weight.T, padding, stride, dilation, groups)
	}
	return out, nil
}
