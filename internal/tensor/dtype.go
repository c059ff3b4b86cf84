// Package tensor provides the tensor value layer shared by the convolution
// dispatch core: shapes, data types, memory formats and raw buffers.
package tensor

// DataType represents runtime type information for tensors.
// The set matches what convolution math backends accept.
type DataType int

// Supported data types for tensors.
const (
	Float16 DataType = iota
	Float32
	Float64
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float16:
		return 2
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float16:
		return "float16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}
