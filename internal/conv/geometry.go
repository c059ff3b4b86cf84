package conv

import (
	"github.com/strata-ml/strata/internal/tensor"
)

// outputSize computes the forward convolution result shape:
// batch from the input, channels from the weight, and per spatial dimension
//
//	out = floor((in + 2*pad - dilation*(kernel-1) - 1) / stride) + 1
//
// It rejects mismatched parameter arity up front so the formula never
// indexes past a parameter slice.
func outputSize(inputSize, weightSize tensor.Shape, padding, stride, dilation []int) (tensor.Shape, error) {
	dim := len(inputSize)
	if err := checkGeometryArity(dim, len(weightSize), padding, stride, dilation); err != nil {
		return nil, err
	}

	out := make(tensor.Shape, dim)
	out[0] = inputSize[0]
	out[1] = weightSize[0]
	for d := 2; d < dim; d++ {
		k := dilation[d-2]*(weightSize[d]-1) + 1
		out[d] = (inputSize[d]+2*padding[d-2]-k)/stride[d-2] + 1
	}
	return out, nil
}

// inputSize inverts outputSize for transposed convolution: given the
// operand that plays grad-output, derive the shape of the tensor that
// forward convolution would have consumed. Inverting the strided mapping
// leaves one degree of freedom per dimension; outputPadding resolves it.
//
//	in = (out-1)*stride - 2*pad + dilation*(kernel-1) + outputPadding + 1
func inputSize(outputSize, weightSize tensor.Shape, padding, outputPadding, stride, dilation []int, groups int) (tensor.Shape, error) {
	dim := len(outputSize)
	if err := checkGeometryArity(dim, len(weightSize), padding, stride, dilation); err != nil {
		return nil, err
	}
	if len(outputPadding) != dim-2 {
		return nil, invalidArgf("expected %d output_padding values, got %d", dim-2, len(outputPadding))
	}

	in := make(tensor.Shape, dim)
	in[0] = outputSize[0]
	in[1] = weightSize[1] * groups
	for d := 2; d < dim; d++ {
		k := dilation[d-2]*(weightSize[d]-1) + 1
		in[d] = (outputSize[d]-1)*stride[d-2] - 2*padding[d-2] + k + outputPadding[d-2]
	}
	return in, nil
}

func checkGeometryArity(inputDim, weightDim int, padding, stride, dilation []int) error {
	if inputDim < minTensorDim || inputDim > maxTensorDim {
		return invalidArgf("expected a rank %d to %d tensor, got rank %d", minTensorDim, maxTensorDim, inputDim)
	}
	if weightDim != inputDim {
		return invalidArgf("expected weight rank %d to match input rank %d", weightDim, inputDim)
	}
	spatial := inputDim - 2
	if len(padding) != spatial || len(stride) != spatial || len(dilation) != spatial {
		return invalidArgf("expected %d padding/stride/dilation values, got %d/%d/%d",
			spatial, len(padding), len(stride), len(dilation))
	}
	for d := 0; d < spatial; d++ {
		if stride[d] <= 0 {
			return invalidArgf("stride should be positive but got %v", stride)
		}
	}
	return nil
}
