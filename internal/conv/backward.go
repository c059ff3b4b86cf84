package conv

import (
	"github.com/strata-ml/strata/internal/tensor"
)

// Grads carries the two optional backward results. A nil field means the
// gradient was not requested; a legitimately empty gradient is a non-nil
// tensor with zero elements, so the two cases are never ambiguous.
type Grads struct {
	Input  *tensor.RawTensor
	Weight *tensor.RawTensor
}

// BackwardInput computes the gradient with respect to the forward input.
// The result geometry is supplied by the caller: in true backward mode the
// original input shape is already known, so nothing has to be derived.
func (d *Dispatcher) BackwardInput(inputSize tensor.Shape, gradOutput, weight *tensor.RawTensor, padding, stride, dilation []int, groups int) (*tensor.RawTensor, error) {
	return d.backwardInput("conv_backward_input", inputSize,
		tensor.NewArg(gradOutput, "grad_output", 1),
		tensor.NewArg(weight, "weight", 2),
		padding, stride, dilation, groups)
}

// TransposeForward runs transposed convolution. It is the same arithmetic
// primitive as BackwardInput; the only difference is that the result
// geometry is derived from the operand instead of supplied, with
// outputPadding resolving the one degree of freedom left when inverting
// the stride/padding/dilation mapping.
func (d *Dispatcher) TransposeForward(input, weight *tensor.RawTensor, padding, outputPadding, stride, dilation []int, groups int) (*tensor.RawTensor, error) {
	return d.transposeForward("conv_transpose",
		tensor.NewArg(input, "input", 1),
		tensor.NewArg(weight, "weight", 2),
		padding, outputPadding, stride, dilation, groups)
}

func (d *Dispatcher) transposeForward(from string, gradOutput, weight tensor.Arg, padding, outputPadding, stride, dilation []int, groups int) (*tensor.RawTensor, error) {
	size, err := inputSize(gradOutput.T.Shape(), weight.T.Shape(), padding, outputPadding, stride, dilation, groups)
	if err != nil {
		return nil, err
	}
	return d.backwardInput(from, size, gradOutput, weight, padding, stride, dilation, groups)
}

// backwardInput shares the forward dispatch pattern but allocates the
// result at a given size and routes to the backward-input primitive. The
// shape check runs with the result in the input role.
func (d *Dispatcher) backwardInput(from string, inputSize tensor.Shape, gradOutput, weight tensor.Arg, padding, stride, dilation []int, groups int) (*tensor.RawTensor, error) {
	if err := checkSameDType(from, gradOutput, weight); err != nil {
		return nil, err
	}
	if err := checkSameDevice(from, gradOutput, weight); err != nil {
		return nil, err
	}

	format := suggestMemoryFormat(gradOutput.T, weight.T)
	gradInput, err := d.alloc.Empty(inputSize, gradOutput.T.DType(), gradOutput.T.Device(), format)
	if err != nil {
		return nil, err
	}
	if gradInput.NumElements() == 0 {
		return gradInput, nil
	}

	// "result", not "grad_input": this path also serves transposed
	// convolution forward, where the same tensor is the output.
	result := tensor.NewArg(gradInput, "result", 0)
	if err := convolutionShapeCheck(from, result, weight, gradOutput, padding, stride, dilation, groups); err != nil {
		return nil, err
	}

	weightC := weight.T.Contiguous(format)
	gradOutputC := gradOutput.T.Contiguous(format)

	geom := Geometry{Padding: padding, Stride: stride, Dilation: dilation, Groups: groups}
	if err := d.backend.BackwardInput(gradInput, gradOutputC, weightC, geom, d.flags()); err != nil {
		return nil, d.backendError(from, err, gradInput, weight.T, padding, stride, dilation, groups)
	}
	return gradInput, nil
}

// BackwardWeight computes the gradient with respect to the forward weight,
// allocated at the caller-supplied weightSize.
func (d *Dispatcher) BackwardWeight(weightSize tensor.Shape, gradOutput, input *tensor.RawTensor, padding, stride, dilation []int, groups int) (*tensor.RawTensor, error) {
	return d.backwardWeight("conv_backward_weight", weightSize, gradOutput, input, padding, stride, dilation, groups)
}

// TransposeBackwardWeight computes the weight gradient of transposed
// convolution. It is the identical backward-weight computation with the
// input and grad-output roles interchanged, not a separate algorithm.
func (d *Dispatcher) TransposeBackwardWeight(weightSize tensor.Shape, gradOutput, input *tensor.RawTensor, padding, stride, dilation []int, groups int) (*tensor.RawTensor, error) {
	return d.backwardWeight("conv_backward_weight", weightSize, input, gradOutput, padding, stride, dilation, groups)
}

func (d *Dispatcher) backwardWeight(from string, weightSize tensor.Shape, gradOutputT, inputT *tensor.RawTensor, padding, stride, dilation []int, groups int) (*tensor.RawTensor, error) {
	format := suggestMemoryFormat(inputT, gradOutputT)

	gradOutput := tensor.NewArg(gradOutputT.Contiguous(format), "grad_output", 1)
	input := tensor.NewArg(inputT.Contiguous(format), "input", 2)

	if err := checkSameDType(from, gradOutput, input); err != nil {
		return nil, err
	}
	if err := checkSameDevice(from, gradOutput, input); err != nil {
		return nil, err
	}

	gradWeight, err := d.alloc.Empty(weightSize, gradOutput.T.DType(), gradOutput.T.Device(), format)
	if err != nil {
		return nil, err
	}

	result := tensor.NewArg(gradWeight, "result", 0)
	if err := convolutionShapeCheck(from, input, result, gradOutput, padding, stride, dilation, groups); err != nil {
		return nil, err
	}

	geom := Geometry{Padding: padding, Stride: stride, Dilation: dilation, Groups: groups}
	if err := d.backend.BackwardWeight(gradWeight, gradOutput.T, input.T, geom, d.flags()); err != nil {
		return nil, d.backendError(from, err, input.T, gradWeight, padding, stride, dilation, groups)
	}
	return gradWeight, nil
}

// Backward computes the gradients of forward convolution selected by mask:
// mask[0] requests grad-input, mask[1] requests grad-weight. Unrequested
// gradients cost nothing: no allocation, no backend call.
//
// A zero-element input short-circuits the backend entirely: the gradient of
// a computation over an empty input is exactly zero, so a requested
// grad-weight comes back zero-filled; a requested grad-input is allocated
// at the right shape but its contents are unspecified (there is nothing it
// could influence).
func (d *Dispatcher) Backward(input, gradOutput, weight *tensor.RawTensor, padding, stride, dilation []int, groups int, mask [2]bool) (Grads, error) {
	gradOutputC := gradOutput.Contiguous(input.SuggestMemoryFormat())

	var grads Grads
	var err error
	if input.NumElements() == 0 {
		if mask[0] {
			grads.Input, err = d.alloc.Empty(input.Shape(), input.DType(), input.Device(), tensor.Contiguous)
			if err != nil {
				return Grads{}, err
			}
		}
		if mask[1] {
			grads.Weight, err = d.alloc.Zeros(weight.Shape(), weight.DType(), weight.Device(), tensor.Contiguous)
			if err != nil {
				return Grads{}, err
			}
		}
		return grads, nil
	}

	if mask[0] {
		grads.Input, err = d.BackwardInput(input.Shape(), gradOutputC, weight, padding, stride, dilation, groups)
		if err != nil {
			return Grads{}, err
		}
	}
	if mask[1] {
		grads.Weight, err = d.BackwardWeight(weight.Shape(), gradOutputC, input, padding, stride, dilation, groups)
		if err != nil {
			return Grads{}, err
		}
	}
	return grads, nil
}

// TransposeBackward computes the gradients of transposed convolution
// selected by mask. It is the same orchestration as Backward routed through
// the dual primitives: grad-input is a plain forward pass of gradOutput,
// grad-weight is the role-swapped backward-weight.
func (d *Dispatcher) TransposeBackward(input, gradOutput, weight *tensor.RawTensor, padding, outputPadding, stride, dilation []int, groups int, mask [2]bool) (Grads, error) {
	_ = outputPadding // geometry is unambiguous in the backward direction

	gradOutputC := gradOutput.Contiguous(input.SuggestMemoryFormat())

	var grads Grads
	var err error
	if mask[0] {
		grads.Input, err = d.TransposeBackwardInput(gradOutputC, weight, padding, stride, dilation, groups)
		if err != nil {
			return Grads{}, err
		}
	}
	if mask[1] {
		grads.Weight, err = d.TransposeBackwardWeight(weight.Shape(), gradOutputC, input, padding, stride, dilation, groups)
		if err != nil {
			return Grads{}, err
		}
	}
	return grads, nil
}
