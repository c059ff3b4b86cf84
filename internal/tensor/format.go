package tensor

// MemoryFormat describes the physical axis order of a tensor buffer.
//
// Contiguous is plain row-major order over the logical shape (NCHW for
// rank-4 tensors). ChannelsLast keeps the channel dimension fastest-varying
// (NHWC physical order, rank-4 only); ChannelsLast3D is the rank-5
// equivalent (NDHWC). The logical shape is identical in every format; only
// the strides differ.
type MemoryFormat int

// Supported memory formats.
const (
	Contiguous MemoryFormat = iota
	ChannelsLast
	ChannelsLast3D
)

// String returns a human-readable format name.
func (f MemoryFormat) String() string {
	switch f {
	case Contiguous:
		return "contiguous"
	case ChannelsLast:
		return "channels_last"
	case ChannelsLast3D:
		return "channels_last_3d"
	default:
		return "unknown"
	}
}

// ValidFor reports whether the format can describe a tensor of the given
// rank. Channels-last formats are tied to one rank each.
func (f MemoryFormat) ValidFor(rank int) bool {
	switch f {
	case ChannelsLast:
		return rank == 4
	case ChannelsLast3D:
		return rank == 5
	default:
		return true
	}
}

// StridesFor computes the strides realizing the format for the given shape.
// For channels-last formats the physical order is batch, spatial dims,
// channels; the returned strides are still indexed by logical dimension.
func (f MemoryFormat) StridesFor(shape Shape) []int {
	if f == Contiguous || !f.ValidFor(len(shape)) {
		return shape.ComputeStrides()
	}

	// Physical order: dim 0, dims 2..rank-1, dim 1.
	order := make([]int, 0, len(shape))
	order = append(order, 0)
	order = append(order, makeRange(2, len(shape))...)
	order = append(order, 1)

	strides := make([]int, len(shape))
	stride := 1
	for i := len(order) - 1; i >= 0; i-- {
		d := order[i]
		strides[d] = stride
		stride *= shape[d]
	}
	return strides
}

func makeRange(lo, hi int) []int {
	r := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		r = append(r, i)
	}
	return r
}
