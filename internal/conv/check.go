package conv

import (
	"github.com/strata-ml/strata/internal/tensor"
)

// checkArgs validates one per-dimension parameter list (padding, stride,
// dilation): exact length and no negative entries. The from string names
// the call site in the failure message.
func checkArgs(from string, values []int, expectedLen int, label string) error {
	if len(values) > expectedLen {
		return invalidArgf("too many %s values (%d) supplied, expecting %d (while checking arguments for %s)",
			label, len(values), expectedLen, from)
	}
	if len(values) < expectedLen {
		return invalidArgf("not enough %s values (%d) supplied, expecting %d (while checking arguments for %s)",
			label, len(values), expectedLen, from)
	}
	for _, v := range values {
		if v < 0 {
			return invalidArgf("%s should be non-negative but got %v (while checking arguments for %s)",
				label, values, from)
		}
	}
	return nil
}

// convolutionShapeCheck validates the geometric relationships that hold
// identically for forward, backward-input and backward-weight dispatch. The
// same function serves all three by permuting which tensor plays which role.
//
// It deliberately does not check the output's exact spatial sizes: spatial
// correctness is guaranteed by the size formula that produced the output
// shape, and checking it here would break the role permutation.
func convolutionShapeCheck(
	from string,
	input, weight, output tensor.Arg,
	padding, stride, dilation []int, groups int,
) error {
	if err := checkArgs(from, padding, input.T.Dim()-2, "padding"); err != nil {
		return err
	}
	if err := checkArgs(from, stride, len(padding), "stride"); err != nil {
		return err
	}
	if err := checkArgs(from, dilation, len(padding), "dilation"); err != nil {
		return err
	}

	if dim := input.T.Dim(); dim < minTensorDim || dim > maxTensorDim {
		return invalidArgf("expected %d- to %d-dimensional %s but got rank %d (while checking arguments for %s)",
			minTensorDim, maxTensorDim, input, dim, from)
	}
	if want := weight.T.Size(1) * groups; input.T.Size(1) != want {
		return invalidArgf("expected %s to have %d channels (weight in-channels %d x groups %d) but got %d (while checking arguments for %s)",
			input, want, weight.T.Size(1), groups, input.T.Size(1), from)
	}
	if weight.T.Dim() != input.T.Dim() {
		return invalidArgf("expected %s (rank %d) and %s (rank %d) to have the same rank (while checking arguments for %s)",
			input, input.T.Dim(), weight, weight.T.Dim(), from)
	}
	if output.T.Dim() != input.T.Dim() {
		return invalidArgf("expected %s (rank %d) and %s (rank %d) to have the same rank (while checking arguments for %s)",
			input, input.T.Dim(), output, output.T.Dim(), from)
	}
	return nil
}

// checkSameDType requires all arguments to share one data type.
func checkSameDType(from string, args ...tensor.Arg) error {
	for _, a := range args[1:] {
		if a.T.DType() != args[0].T.DType() {
			return invalidArgf("expected %s (%s) and %s (%s) to have the same dtype (while checking arguments for %s)",
				args[0], args[0].T.DType(), a, a.T.DType(), from)
		}
	}
	return nil
}

// checkSameDevice requires all arguments to live on one device.
func checkSameDevice(from string, args ...tensor.Arg) error {
	for _, a := range args[1:] {
		if a.T.Device() != args[0].T.Device() {
			return invalidArgf("expected %s (%s) and %s (%s) to be on the same device (while checking arguments for %s)",
				args[0], args[0].T.Device(), a, a.T.Device(), from)
		}
	}
	return nil
}
