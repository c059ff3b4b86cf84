package reference

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/strata-ml/strata/internal/conv"
	"github.com/strata-ml/strata/internal/tensor"
)

// im2colEligible reports whether the forward can take the im2col+GEMM path.
// The fast path handles the common case only: 2D convolution, one group,
// plain NCHW layout, a dtype BLAS understands. Everything else falls back
// to the generic strided loop.
func im2colEligible(out, in, w *tensor.RawTensor, geom conv.Geometry) bool {
	if in.Dim() != 4 || geom.Groups != 1 {
		return false
	}
	if out.SuggestMemoryFormat() != tensor.Contiguous || in.SuggestMemoryFormat() != tensor.Contiguous || w.SuggestMemoryFormat() != tensor.Contiguous {
		return false
	}
	if in.DType() != tensor.Float32 && in.DType() != tensor.Float64 {
		return false
	}
	return out.NumElements() > 0 && in.NumElements() > 0 && w.NumElements() > 0
}

// forwardIm2col computes a 2D convolution as a matrix multiply.
//
// Algorithm:
//  1. Im2col: unfold input patches into colBuf [N*H_out*W_out, C_in*K_h*K_w]
//  2. Kernel is already [C_out, C_in*K_h*K_w] in row-major
//  3. GEMM: kernel @ colBuf^T -> [C_out, N*H_out*W_out]
//  4. Rearrange to [N, C_out, H_out, W_out]
//
// Reference: "High Performance Convolutional Neural Networks for Document
// Processing" (Chellapilla et al., 2006).
func forwardIm2col(out, in, w *tensor.RawTensor, geom conv.Geometry) error {
	n := in.Size(0)
	cin := in.Size(1)
	h, width := in.Size(2), in.Size(3)
	cout := w.Size(0)
	kh, kw := w.Size(2), w.Size(3)
	hOut, wOut := out.Size(2), out.Size(3)

	colWidth := cin * kh * kw
	colHeight := n * hOut * wOut

	switch in.DType() {
	case tensor.Float32:
		colBuf := make([]float32, colHeight*colWidth)
		im2colFloat32(colBuf, in.AsFloat32(), cin, h, width, kh, kw, hOut, wOut, n, geom)

		gemmBuf := make([]float32, cout*colHeight)
		blas32.Gemm(blas.NoTrans, blas.Trans, 1,
			blas32.General{Rows: cout, Cols: colWidth, Stride: colWidth, Data: w.AsFloat32()},
			blas32.General{Rows: colHeight, Cols: colWidth, Stride: colWidth, Data: colBuf},
			0,
			blas32.General{Rows: cout, Cols: colHeight, Stride: colHeight, Data: gemmBuf})

		rearrangeFloat32(out.AsFloat32(), gemmBuf, n, cout, hOut, wOut)
	case tensor.Float64:
		colBuf := make([]float64, colHeight*colWidth)
		im2colFloat64(colBuf, in.AsFloat64(), cin, h, width, kh, kw, hOut, wOut, n, geom)

		gemmBuf := make([]float64, cout*colHeight)
		blas64.Gemm(blas.NoTrans, blas.Trans, 1,
			blas64.General{Rows: cout, Cols: colWidth, Stride: colWidth, Data: w.AsFloat64()},
			blas64.General{Rows: colHeight, Cols: colWidth, Stride: colWidth, Data: colBuf},
			0,
			blas64.General{Rows: cout, Cols: colHeight, Stride: colHeight, Data: gemmBuf})

		rearrangeFloat64(out.AsFloat64(), gemmBuf, n, cout, hOut, wOut)
	}
	return nil
}

// im2colFloat32 unfolds input patches into a column matrix. Each row of
// colBuf holds the receptive field of one output position; positions that
// fall into padding are left zero.
func im2colFloat32(colBuf, inputData []float32, c, h, w, kh, kw, hOut, wOut, n int, geom conv.Geometry) {
	colWidth := c * kh * kw
	colIdx := 0

	for batch := 0; batch < n; batch++ {
		for outH := 0; outH < hOut; outH++ {
			for outW := 0; outW < wOut; outW++ {
				hStart := outH*geom.Stride[0] - geom.Padding[0]
				wStart := outW*geom.Stride[1] - geom.Padding[1]
				bufIdx := colIdx * colWidth

				for ch := 0; ch < c; ch++ {
					for i := 0; i < kh; i++ {
						for j := 0; j < kw; j++ {
							ih := hStart + i*geom.Dilation[0]
							iw := wStart + j*geom.Dilation[1]
							if ih >= 0 && ih < h && iw >= 0 && iw < w {
								colBuf[bufIdx] = inputData[batch*c*h*w+ch*h*w+ih*w+iw]
							}
							bufIdx++
						}
					}
				}
				colIdx++
			}
		}
	}
}

func im2colFloat64(colBuf, inputData []float64, c, h, w, kh, kw, hOut, wOut, n int, geom conv.Geometry) {
	colWidth := c * kh * kw
	colIdx := 0

	for batch := 0; batch < n; batch++ {
		for outH := 0; outH < hOut; outH++ {
			for outW := 0; outW < wOut; outW++ {
				hStart := outH*geom.Stride[0] - geom.Padding[0]
				wStart := outW*geom.Stride[1] - geom.Padding[1]
				bufIdx := colIdx * colWidth

				for ch := 0; ch < c; ch++ {
					for i := 0; i < kh; i++ {
						for j := 0; j < kw; j++ {
							ih := hStart + i*geom.Dilation[0]
							iw := wStart + j*geom.Dilation[1]
							if ih >= 0 && ih < h && iw >= 0 && iw < w {
								colBuf[bufIdx] = inputData[batch*c*h*w+ch*h*w+ih*w+iw]
							}
							bufIdx++
						}
					}
				}
				colIdx++
			}
		}
	}
}

// rearrangeFloat32 scatters the GEMM result [C_out, N*H_out*W_out] into the
// output's [N, C_out, H_out, W_out] layout.
func rearrangeFloat32(outData, gemmBuf []float32, n, cout, hOut, wOut int) {
	plane := hOut * wOut
	colHeight := n * plane
	for batch := 0; batch < n; batch++ {
		for c := 0; c < cout; c++ {
			src := gemmBuf[c*colHeight+batch*plane:]
			dst := outData[batch*cout*plane+c*plane:]
			copy(dst[:plane], src[:plane])
		}
	}
}

func rearrangeFloat64(outData, gemmBuf []float64, n, cout, hOut, wOut int) {
	plane := hOut * wOut
	colHeight := n * plane
	for batch := 0; batch < n; batch++ {
		for c := 0; c < cout; c++ {
			src := gemmBuf[c*colHeight+batch*plane:]
			dst := outData[batch*cout*plane+c*plane:]
			copy(dst[:plane], src[:plane])
		}
	}
}
