package conv

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/strata-ml/strata/internal/tensor"
)

// Tensor rank bounds: spatial rank 1..3, so tensor rank 3..5.
const (
	minTensorDim = 3
	maxTensorDim = 5
	maxSpatial   = maxTensorDim - 2
)

// Params is the canonical descriptor of one convolution call. It is a plain
// comparable value with no indirection, so an external plan cache can use
// it directly as a map key or hash it structurally. A Params is built fresh
// per call and never retained by this package.
//
// NB: keep this struct free of pointers, slices and constructors. SetParams
// zero-fills the whole value before populating it so that unused trailing
// array slots never hold stale data.
type Params struct {
	DataType      tensor.DataType
	InputDim      int32
	InputSize     [maxTensorDim]int32
	WeightSize    [maxTensorDim]int32
	Padding       [maxSpatial]int32
	Stride        [maxSpatial]int32
	Dilation      [maxSpatial]int32
	Groups        int32
	Deterministic bool
	AllowTF32     bool
	Format        tensor.MemoryFormat
	DeviceID      int32
}

// SetParams populates p from one call's arguments, zero-filling first.
func SetParams(
	p *Params,
	input, weight *tensor.RawTensor,
	padding, stride, dilation []int,
	groups int, deterministic, allowTF32 bool, deviceID int32,
) {
	*p = Params{}
	p.DataType = input.DType()
	p.InputDim = int32(input.Dim())
	p.Format = input.SuggestMemoryFormat()
	p.DeviceID = deviceID
	for i := 0; i < input.Dim() && i < maxTensorDim; i++ {
		p.InputSize[i] = int32(input.Size(i))
		p.WeightSize[i] = int32(weight.Size(i))
	}
	for i := 0; i < len(padding) && i < maxSpatial; i++ {
		p.Padding[i] = int32(padding[i])
		p.Stride[i] = int32(stride[i])
		p.Dilation[i] = int32(dilation[i])
	}
	p.Groups = int32(groups)
	p.Deterministic = deterministic
	p.AllowTF32 = allowTF32
}

// Hash returns an FNV-1a digest of the populated fields. Structurally equal
// values hash equal; the zero-fill in SetParams keeps unused slots from
// contributing noise.
func (p *Params) Hash() uint64 {
	h := fnv.New64a()
	var buf [4]byte
	put := func(v int32) {
		binary.LittleEndian.PutUint32(buf[:], uint32(v))
		h.Write(buf[:])
	}
	putBool := func(b bool) {
		if b {
			put(1)
		} else {
			put(0)
		}
	}

	put(int32(p.DataType))
	put(p.InputDim)
	for _, v := range p.InputSize {
		put(v)
	}
	for _, v := range p.WeightSize {
		put(v)
	}
	for _, v := range p.Padding {
		put(v)
	}
	for _, v := range p.Stride {
		put(v)
	}
	for _, v := range p.Dilation {
		put(v)
	}
	put(p.Groups)
	putBool(p.Deterministic)
	putBool(p.AllowTF32)
	put(int32(p.Format))
	put(p.DeviceID)
	return h.Sum64()
}

// spatial returns the spatial slice of a parameter array.
func (p *Params) spatial(a [maxSpatial]int32) []int32 {
	n := int(p.InputDim) - 2
	if n < 0 {
		n = 0
	}
	if n > maxSpatial {
		n = maxSpatial
	}
	return a[:n]
}

// String renders a multi-line human-readable parameter dump.
func (p Params) String() string {
	var b strings.Builder
	b.WriteString("ConvParams\n")
	fmt.Fprintf(&b, "    data_type = %s\n", dtypeName(p.DataType))
	fmt.Fprintf(&b, "    padding = %v\n", p.spatial(p.Padding))
	fmt.Fprintf(&b, "    stride = %v\n", p.spatial(p.Stride))
	fmt.Fprintf(&b, "    dilation = %v\n", p.spatial(p.Dilation))
	fmt.Fprintf(&b, "    groups = %d\n", p.Groups)
	fmt.Fprintf(&b, "    deterministic = %t\n", p.Deterministic)
	fmt.Fprintf(&b, "    allow_tf32 = %t\n", p.AllowTF32)
	return b.String()
}

// dtypeName degrades to a placeholder for dtypes this layer does not know,
// rather than failing a purely diagnostic path.
func dtypeName(dt tensor.DataType) string {
	switch dt {
	case tensor.Float16, tensor.Float32, tensor.Float64:
		return dt.String()
	default:
		return "unsupported"
	}
}
