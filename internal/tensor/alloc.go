package tensor

// Allocator produces fresh result tensors for the dispatch layer. The
// dispatch layer owns allocation; execution backends never allocate.
type Allocator interface {
	// Empty allocates a tensor of the given geometry. Contents are
	// unspecified from the caller's point of view.
	Empty(shape Shape, dtype DataType, device Device, format MemoryFormat) (*RawTensor, error)

	// Zeros allocates a tensor of the given geometry with every element
	// set to zero.
	Zeros(shape Shape, dtype DataType, device Device, format MemoryFormat) (*RawTensor, error)
}

// DefaultAllocator allocates host memory. Go allocations are zero-filled,
// so Empty and Zeros coincide here; the distinction matters for device
// allocators.
type DefaultAllocator struct{}

// NewAllocator returns the default host allocator.
func NewAllocator() *DefaultAllocator {
	return &DefaultAllocator{}
}

// Empty allocates a tensor without guaranteeing contents.
func (*DefaultAllocator) Empty(shape Shape, dtype DataType, device Device, format MemoryFormat) (*RawTensor, error) {
	return NewRawWithFormat(shape, dtype, device, format)
}

// Zeros allocates a zero-filled tensor.
func (*DefaultAllocator) Zeros(shape Shape, dtype DataType, device Device, format MemoryFormat) (*RawTensor, error) {
	return NewRawWithFormat(shape, dtype, device, format)
}

var _ Allocator = (*DefaultAllocator)(nil)
