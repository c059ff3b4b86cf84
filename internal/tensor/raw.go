package tensor

import (
	"fmt"
	"unsafe"

	"github.com/x448/float16"
)

// Device represents the compute device tensor data resides on.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	CUDA
	Vulkan
	Metal
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case Vulkan:
		return "Vulkan"
	case Metal:
		return "Metal"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// RawTensor is the low-level tensor representation the dispatch layer works
// on. Each RawTensor exclusively owns its buffer; the dispatch layer never
// shares or pools buffers between calls.
type RawTensor struct {
	data   []byte
	shape  Shape
	stride []int
	dtype  DataType
	device Device
	format MemoryFormat
}

// NewRaw creates a RawTensor with contiguous layout.
// Memory is allocated and zero-filled.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return NewRawWithFormat(shape, dtype, device, Contiguous)
}

// NewRawWithFormat creates a RawTensor laid out in the given memory format.
// A channels-last format on a shape of the wrong rank is an error.
func NewRawWithFormat(shape Shape, dtype DataType, device Device, format MemoryFormat) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if !format.ValidFor(len(shape)) {
		return nil, fmt.Errorf("memory format %s requires a different rank, got shape %v", format, shape)
	}

	return &RawTensor{
		data:   make([]byte, shape.NumElements()*dtype.Size()),
		shape:  shape.Clone(),
		stride: format.StridesFor(shape),
		dtype:  dtype,
		device: device,
		format: format,
	}, nil
}

// Shape returns the tensor's logical shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Dim returns the tensor rank.
func (r *RawTensor) Dim() int {
	return len(r.shape)
}

// Size returns the length of dimension d.
func (r *RawTensor) Size(d int) int {
	return r.shape[d]
}

// Strides returns the tensor's memory strides, indexed by logical dimension.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// Data returns the raw byte slice.
func (r *RawTensor) Data() []byte {
	return r.data
}

// SuggestMemoryFormat reports the memory format the tensor's strides
// express. It is the layout hint operand resolution works from.
func (r *RawTensor) SuggestMemoryFormat() MemoryFormat {
	return r.format
}

// AsFloat16 interprets the data as []float16.Float16.
// Panics if the tensor's dtype is not Float16.
func (r *RawTensor) AsFloat16() []float16.Float16 {
	if r.dtype != Float16 {
		panic(fmt.Sprintf("tensor dtype is %s, not float16", r.dtype))
	}
	if r.NumElements() == 0 {
		return nil
	}
	return unsafe.Slice((*float16.Float16)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	if r.NumElements() == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", r.dtype))
	}
	if r.NumElements() == 0 {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// At reads the element at the given logical indices as float64,
// converting from the tensor's dtype.
func (r *RawTensor) At(indices ...int) float64 {
	return r.Load(r.offsetOf(indices))
}

// SetAt writes the element at the given logical indices,
// converting into the tensor's dtype.
func (r *RawTensor) SetAt(value float64, indices ...int) {
	r.Store(r.offsetOf(indices), value)
}

// Load reads the element at a flat element offset as float64.
func (r *RawTensor) Load(offset int) float64 {
	switch r.dtype {
	case Float16:
		return float64(r.AsFloat16()[offset].Float32())
	case Float32:
		return float64(r.AsFloat32()[offset])
	case Float64:
		return r.AsFloat64()[offset]
	default:
		panic("unknown data type")
	}
}

// Store writes the element at a flat element offset from float64.
func (r *RawTensor) Store(offset int, value float64) {
	switch r.dtype {
	case Float16:
		r.AsFloat16()[offset] = float16.Fromfloat32(float32(value))
	case Float32:
		r.AsFloat32()[offset] = float32(value)
	case Float64:
		r.AsFloat64()[offset] = value
	default:
		panic("unknown data type")
	}
}

func (r *RawTensor) offsetOf(indices []int) int {
	if len(indices) != len(r.shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(r.shape), len(indices)))
	}
	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= r.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, r.shape[i]))
		}
		offset += idx * r.stride[i]
	}
	return offset
}

// Contiguous returns the tensor itself when it is already laid out in the
// requested format, or a repacked copy otherwise. Backends require a single
// consistent layout across every buffer in one call, so operands are forced
// through this before dispatch.
func (r *RawTensor) Contiguous(format MemoryFormat) *RawTensor {
	if !format.ValidFor(len(r.shape)) {
		format = Contiguous
	}
	if r.format == format {
		return r
	}

	out, err := NewRawWithFormat(r.shape, r.dtype, r.device, format)
	if err != nil {
		panic(fmt.Sprintf("contiguous: %v", err))
	}
	if r.NumElements() == 0 {
		return out
	}

	elemSize := r.dtype.Size()
	idx := make([]int, len(r.shape))
	for {
		src, dst := 0, 0
		for d, i := range idx {
			src += i * r.stride[d]
			dst += i * out.stride[d]
		}
		copy(out.data[dst*elemSize:(dst+1)*elemSize], r.data[src*elemSize:(src+1)*elemSize])

		d := len(idx) - 1
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < r.shape[d] {
				break
			}
			idx[d] = 0
		}
		if d < 0 {
			return out
		}
	}
}

// Clone creates a deep copy of the RawTensor.
func (r *RawTensor) Clone() *RawTensor {
	c := &RawTensor{
		data:   make([]byte, len(r.data)),
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
		format: r.format,
	}
	copy(c.data, r.data)
	return c
}

// String returns a human-readable representation of the tensor.
func (r *RawTensor) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s (%s)", r.dtype, r.shape, r.device, r.format)
}
