package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-ml/strata/internal/conv"
	"github.com/strata-ml/strata/internal/tensor"
)

func mustRaw(t *testing.T, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(shape, dtype, tensor.CPU)
	require.NoError(t, err)
	return r
}

func fill(r *tensor.RawTensor, values ...float64) {
	for i, v := range values {
		r.Store(i, v)
	}
}

func geom2(padding, stride, dilation int, groups int) conv.Geometry {
	return conv.Geometry{
		Padding:  []int{padding, padding},
		Stride:   []int{stride, stride},
		Dilation: []int{dilation, dilation},
		Groups:   groups,
	}
}

func TestForward_Basic(t *testing.T) {
	b := New()

	// 3x3 input 1..9, 2x2 diagonal kernel.
	input := mustRaw(t, tensor.Shape{1, 1, 3, 3}, tensor.Float32)
	fill(input, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	weight := mustRaw(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32)
	fill(weight, 1, 0, 0, 1)
	out := mustRaw(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32)

	require.NoError(t, b.Forward(out, input, weight, geom2(0, 1, 1, 1), conv.Flags{}))

	// Each output is the sum of the patch's diagonal.
	assert.Equal(t, []float32{6, 8, 12, 14}, out.AsFloat32())
}

func TestForward_Padding(t *testing.T) {
	b := New()

	// All-ones 3x3 input with an all-ones 3x3 sum kernel and padding 1:
	// each output counts the in-bounds positions of its patch.
	input := mustRaw(t, tensor.Shape{1, 1, 3, 3}, tensor.Float32)
	weight := mustRaw(t, tensor.Shape{1, 1, 3, 3}, tensor.Float32)
	for i := 0; i < 9; i++ {
		input.Store(i, 1)
		weight.Store(i, 1)
	}
	out := mustRaw(t, tensor.Shape{1, 1, 3, 3}, tensor.Float32)

	require.NoError(t, b.Forward(out, input, weight, geom2(1, 1, 1, 1), conv.Flags{}))

	assert.Equal(t, []float32{
		4, 6, 4,
		6, 9, 6,
		4, 6, 4,
	}, out.AsFloat32())
}

func TestForward_Stride(t *testing.T) {
	b := New()

	input := mustRaw(t, tensor.Shape{1, 1, 4, 4}, tensor.Float32)
	for i := 0; i < 16; i++ {
		input.Store(i, float64(i))
	}
	// 1x1 identity kernel with stride 2 samples every other position.
	weight := mustRaw(t, tensor.Shape{1, 1, 1, 1}, tensor.Float32)
	fill(weight, 1)
	out := mustRaw(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32)

	require.NoError(t, b.Forward(out, input, weight, geom2(0, 2, 1, 1), conv.Flags{}))
	assert.Equal(t, []float32{0, 2, 8, 10}, out.AsFloat32())
}

func TestForward_Dilation(t *testing.T) {
	b := New()

	input := mustRaw(t, tensor.Shape{1, 1, 3, 3}, tensor.Float32)
	fill(input, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	// Dilated 2x2 kernel reaches the four corners of the 3x3 input.
	weight := mustRaw(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32)
	fill(weight, 1, 1, 1, 1)
	out := mustRaw(t, tensor.Shape{1, 1, 1, 1}, tensor.Float32)

	require.NoError(t, b.Forward(out, input, weight, geom2(0, 1, 2, 1), conv.Flags{}))
	assert.Equal(t, []float32{1 + 3 + 7 + 9}, out.AsFloat32())
}

func TestForward_MultiChannelAccumulates(t *testing.T) {
	b := New()

	// Two input channels, constant 1 and 2; sum kernel over both.
	input := mustRaw(t, tensor.Shape{1, 2, 2, 2}, tensor.Float32)
	for i := 0; i < 4; i++ {
		input.Store(i, 1)
		input.Store(4+i, 2)
	}
	weight := mustRaw(t, tensor.Shape{1, 2, 2, 2}, tensor.Float32)
	for i := 0; i < 8; i++ {
		weight.Store(i, 1)
	}
	out := mustRaw(t, tensor.Shape{1, 1, 1, 1}, tensor.Float32)

	require.NoError(t, b.Forward(out, input, weight, geom2(0, 1, 1, 1), conv.Flags{}))
	assert.Equal(t, []float32{4*1 + 4*2}, out.AsFloat32())
}

func TestForward_Batch(t *testing.T) {
	b := New()

	input := mustRaw(t, tensor.Shape{2, 1, 2, 2}, tensor.Float32)
	fill(input, 1, 1, 1, 1, 2, 2, 2, 2)
	weight := mustRaw(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32)
	fill(weight, 1, 1, 1, 1)
	out := mustRaw(t, tensor.Shape{2, 1, 1, 1}, tensor.Float32)

	require.NoError(t, b.Forward(out, input, weight, geom2(0, 1, 1, 1), conv.Flags{}))
	assert.Equal(t, []float32{4, 8}, out.AsFloat32())
}

func TestForward_Groups(t *testing.T) {
	b := New()

	// Two groups of one channel each: each output channel must see only
	// its own input channel.
	input := mustRaw(t, tensor.Shape{1, 2, 2, 2}, tensor.Float32)
	fill(input, 1, 1, 1, 1, 10, 10, 10, 10)
	weight := mustRaw(t, tensor.Shape{2, 1, 2, 2}, tensor.Float32)
	fill(weight, 1, 1, 1, 1, 1, 1, 1, 1)
	out := mustRaw(t, tensor.Shape{1, 2, 1, 1}, tensor.Float32)

	require.NoError(t, b.Forward(out, input, weight, geom2(0, 1, 1, 2), conv.Flags{}))
	assert.Equal(t, []float32{4, 40}, out.AsFloat32())
}

func TestForward_1D(t *testing.T) {
	b := New()

	input := mustRaw(t, tensor.Shape{1, 1, 5}, tensor.Float32)
	fill(input, 1, 2, 3, 4, 5)
	weight := mustRaw(t, tensor.Shape{1, 1, 2}, tensor.Float32)
	fill(weight, 1, 1)
	out := mustRaw(t, tensor.Shape{1, 1, 4}, tensor.Float32)

	g := conv.Geometry{Padding: []int{0}, Stride: []int{1}, Dilation: []int{1}, Groups: 1}
	require.NoError(t, b.Forward(out, input, weight, g, conv.Flags{}))
	assert.Equal(t, []float32{3, 5, 7, 9}, out.AsFloat32())
}

func TestForward_3D(t *testing.T) {
	b := New()

	input := mustRaw(t, tensor.Shape{1, 1, 2, 2, 2}, tensor.Float64)
	fill(input, 1, 2, 3, 4, 5, 6, 7, 8)
	weight := mustRaw(t, tensor.Shape{1, 1, 2, 2, 2}, tensor.Float64)
	for i := 0; i < 8; i++ {
		weight.Store(i, 1)
	}
	out := mustRaw(t, tensor.Shape{1, 1, 1, 1, 1}, tensor.Float64)

	g := conv.Geometry{Padding: []int{0, 0, 0}, Stride: []int{1, 1, 1}, Dilation: []int{1, 1, 1}, Groups: 1}
	require.NoError(t, b.Forward(out, input, weight, g, conv.Flags{}))
	assert.Equal(t, []float64{36}, out.AsFloat64())
}

// TestForward_GenericMatchesIm2col runs the same convolution through the
// im2col fast path (contiguous) and the generic path (channels-last) and
// requires identical logical values. Integer-valued data keeps both
// accumulation orders exact.
func TestForward_GenericMatchesIm2col(t *testing.T) {
	b := New()

	shape := tensor.Shape{2, 3, 5, 5}
	wShape := tensor.Shape{4, 3, 3, 3}
	input := mustRaw(t, shape, tensor.Float32)
	for i := 0; i < input.NumElements(); i++ {
		input.Store(i, float64(i%7)-3)
	}
	weight := mustRaw(t, wShape, tensor.Float32)
	for i := 0; i < weight.NumElements(); i++ {
		weight.Store(i, float64(i%5)-2)
	}

	g := geom2(1, 2, 1, 1)
	outShape := tensor.Shape{2, 4, 3, 3}

	fast := mustRaw(t, outShape, tensor.Float32)
	require.NoError(t, b.Forward(fast, input, weight, g, conv.Flags{}))

	slow, err := tensor.NewRawWithFormat(outShape, tensor.Float32, tensor.CPU, tensor.ChannelsLast)
	require.NoError(t, err)
	require.NoError(t, b.Forward(slow, input.Contiguous(tensor.ChannelsLast), weight.Contiguous(tensor.ChannelsLast), g, conv.Flags{}))

	for n := 0; n < outShape[0]; n++ {
		for c := 0; c < outShape[1]; c++ {
			for h := 0; h < outShape[2]; h++ {
				for w := 0; w < outShape[3]; w++ {
					assert.Equal(t, fast.At(n, c, h, w), slow.At(n, c, h, w),
						"mismatch at [%d %d %d %d]", n, c, h, w)
				}
			}
		}
	}
}

func TestIm2colEligible_KeysOnStrideLayout(t *testing.T) {
	shape := tensor.Shape{2, 3, 5, 5}
	wShape := tensor.Shape{4, 3, 3, 3}
	outShape := tensor.Shape{2, 4, 3, 3}
	out := mustRaw(t, outShape, tensor.Float32)
	in := mustRaw(t, shape, tensor.Float32)
	w := mustRaw(t, wShape, tensor.Float32)
	g := geom2(1, 2, 1, 1)

	assert.True(t, im2colEligible(out, in, w, g), "plain NCHW float32")

	clIn, err := tensor.NewRawWithFormat(shape, tensor.Float32, tensor.CPU, tensor.ChannelsLast)
	require.NoError(t, err)
	assert.False(t, im2colEligible(out, clIn, w, g), "channels-last input")

	grouped := g
	grouped.Groups = 3
	assert.False(t, im2colEligible(out, in, w, grouped), "grouped")

	f16 := mustRaw(t, shape, tensor.Float16)
	assert.False(t, im2colEligible(out, f16, w, g), "no BLAS dtype")
}

func TestBackwardInput_ScattersGradient(t *testing.T) {
	b := New()

	// grad-output all ones; each input position collects the kernel
	// weights of every output window that read it.
	gradOut := mustRaw(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32)
	fill(gradOut, 1, 1, 1, 1)
	weight := mustRaw(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32)
	fill(weight, 1, 2, 3, 4)
	gradIn := mustRaw(t, tensor.Shape{1, 1, 3, 3}, tensor.Float32)

	require.NoError(t, b.BackwardInput(gradIn, gradOut, weight, geom2(0, 1, 1, 1), conv.Flags{}))
	assert.Equal(t, []float32{
		1, 3, 2,
		4, 10, 6,
		3, 7, 4,
	}, gradIn.AsFloat32())
}

func TestBackwardWeight_AccumulatesPatches(t *testing.T) {
	b := New()

	input := mustRaw(t, tensor.Shape{1, 1, 3, 3}, tensor.Float32)
	fill(input, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	gradOut := mustRaw(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32)
	fill(gradOut, 1, 1, 1, 1)
	gradW := mustRaw(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32)

	require.NoError(t, b.BackwardWeight(gradW, gradOut, input, geom2(0, 1, 1, 1), conv.Flags{}))
	// gradW[k] = sum over output positions of input shifted by k.
	assert.Equal(t, []float32{12, 16, 24, 28}, gradW.AsFloat32())
}

func TestBackward_OverwritesStaleOutput(t *testing.T) {
	b := New()

	gradOut := mustRaw(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32)
	weight := mustRaw(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32)
	gradIn := mustRaw(t, tensor.Shape{1, 1, 3, 3}, tensor.Float32)
	for i := 0; i < 9; i++ {
		gradIn.Store(i, 99)
	}

	// All-zero gradient must produce an all-zero result, not stale data.
	require.NoError(t, b.BackwardInput(gradIn, gradOut, weight, geom2(0, 1, 1, 1), conv.Flags{}))
	for _, v := range gradIn.AsFloat32() {
		assert.Zero(t, v)
	}
}

func TestPrimitives_ZeroElementOperands(t *testing.T) {
	b := New()
	g := geom2(0, 1, 1, 1)

	// Empty grad-output: both gradients are exactly zero.
	gradOut := mustRaw(t, tensor.Shape{1, 1, 0, 0}, tensor.Float32)
	weight := mustRaw(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32)
	gradIn := mustRaw(t, tensor.Shape{1, 1, 1, 1}, tensor.Float32)
	gradIn.Store(0, 5)
	require.NoError(t, b.BackwardInput(gradIn, gradOut, weight, g, conv.Flags{}))
	assert.Zero(t, gradIn.AsFloat32()[0])

	gradW := mustRaw(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32)
	gradW.Store(0, 5)
	input := mustRaw(t, tensor.Shape{1, 1, 0, 0}, tensor.Float32)
	require.NoError(t, b.BackwardWeight(gradW, gradOut, input, g, conv.Flags{}))
	for _, v := range gradW.AsFloat32() {
		assert.Zero(t, v)
	}

	// Empty output: nothing to compute, nothing to touch.
	out := mustRaw(t, tensor.Shape{0, 1, 1, 1}, tensor.Float32)
	emptyIn := mustRaw(t, tensor.Shape{0, 1, 2, 2}, tensor.Float32)
	require.NoError(t, b.Forward(out, emptyIn, weight, g, conv.Flags{}))
}
