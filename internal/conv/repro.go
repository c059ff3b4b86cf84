package conv

import (
	"fmt"
	"strings"

	"github.com/strata-ml/strata/internal/tensor"
)

// reproFromParams renders a minimal standalone snippet that reproduces the
// failing call: the policy flags in force, the exact operand geometry and
// the dispatch invocation. It is appended to every BackendError.
//
// This is a diagnostic path: an unrecognized dtype degrades to a
// placeholder string instead of failing.
func reproFromParams(p *Params, policy Policy) string {
	dim := int(p.InputDim)
	outChannels := p.WeightSize[0]
	inChannels := p.WeightSize[1] * p.Groups

	format := tensor.Contiguous
	switch p.Format {
	case tensor.ChannelsLast, tensor.ChannelsLast3D:
		format = p.Format
	}

	var b strings.Builder
	b.WriteString("You can try to reproduce this failure using the snippet below. ")
	b.WriteString("If it does not trigger the error, include your original repro script when reporting the issue.\n\n")
	fmt.Fprintf(&b, "policy := conv.Policy{AllowTF32: %t, AllowTF32Matmul: %t, Benchmark: %t, Deterministic: %t, DeviceID: %d}\n",
		p.AllowTF32, policy.AllowTF32Matmul, policy.Benchmark, p.Deterministic, p.DeviceID)
	b.WriteString("d := conv.NewDispatcher(backend, tensor.NewAllocator(), policy)\n")
	fmt.Fprintf(&b, "input, _ := tensor.NewRawWithFormat(tensor.Shape%v, tensor.%s, tensor.CUDA, tensor.%s)\n",
		sizes(p.InputSize[:dim]), goDtypeName(p.DataType), goFormatName(format))
	fmt.Fprintf(&b, "weight, _ := tensor.NewRawWithFormat(tensor.Shape%v, tensor.%s, tensor.CUDA, tensor.%s) // %d -> %d channels, kernel %v\n",
		sizes(p.WeightSize[:dim]), goDtypeName(p.DataType), goFormatName(format),
		inChannels, outChannels, sizes(p.WeightSize[2:dim]))
	fmt.Fprintf(&b, "out, err := d.Forward(input, weight, %v, %v, %v, %d) // padding, stride, dilation, groups\n",
		sizes(p.spatial(p.Padding)), sizes(p.spatial(p.Stride)), sizes(p.spatial(p.Dilation)), p.Groups)
	fmt.Fprintf(&b, "grads, err := d.Backward(input, out, weight, %v, %v, %v, %d, [2]bool{true, true})\n",
		sizes(p.spatial(p.Padding)), sizes(p.spatial(p.Stride)), sizes(p.spatial(p.Dilation)), p.Groups)
	b.WriteString("_ = grads\n")
	return b.String()
}

// sizes renders an int32 slice as a Go composite-literal body.
func sizes(vs []int32) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprint(v)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func goDtypeName(dt tensor.DataType) string {
	switch dt {
	case tensor.Float16:
		return "Float16"
	case tensor.Float32:
		return "Float32"
	case tensor.Float64:
		return "Float64"
	default:
		return "unsupported"
	}
}

func goFormatName(f tensor.MemoryFormat) string {
	switch f {
	case tensor.ChannelsLast:
		return "ChannelsLast"
	case tensor.ChannelsLast3D:
		return "ChannelsLast3D"
	default:
		return "Contiguous"
	}
}
