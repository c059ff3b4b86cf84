package reference

import (
	"github.com/strata-ml/strata/internal/conv"
	"github.com/strata-ml/strata/internal/tensor"
)

// ConvAddReLU computes out = relu(conv(input, weight) + bias + alpha*z) in
// one call: the convolution lands in out, then a single epilogue pass folds
// in the bias, the scaled residual and the clamp. When alpha is zero the
// residual is never read, so z may alias out or hold arbitrary bytes.
func (b *Backend) ConvAddReLU(out, input, weight, z *tensor.RawTensor, alpha float64, bias *tensor.RawTensor, geom conv.Geometry, flags conv.Flags) error {
	if err := b.Forward(out, input, weight, geom, flags); err != nil {
		return err
	}
	epilogue(out, z, alpha, bias, true)
	return nil
}

// ConvAddReLUFallback is the two-pass rendition of ConvAddReLU: one pass
// adds bias and residual, a second clamps. The per-element arithmetic and
// its order are the same as the single-pass primitive, so both produce
// bit-for-bit identical results.
func (b *Backend) ConvAddReLUFallback(out, input, weight, z *tensor.RawTensor, alpha float64, bias *tensor.RawTensor, geom conv.Geometry, flags conv.Flags) error {
	if err := b.Forward(out, input, weight, geom, flags); err != nil {
		return err
	}
	epilogue(out, z, alpha, bias, false)
	epilogue(out, nil, 0, nil, true)
	return nil
}

// epilogue applies out = maybeRelu(out + bias[channel] + alpha*z) in place,
// walking logical indices so any memory format works. A nil bias adds
// nothing; the z term is skipped entirely at alpha zero.
func epilogue(out, z *tensor.RawTensor, alpha float64, bias *tensor.RawTensor, clamp bool) {
	if out.NumElements() == 0 {
		return
	}

	dims := out.Shape()
	idx := make([]int, len(dims))
	for {
		v := out.At(idx...)
		if bias != nil {
			v += bias.At(idx[1])
		}
		if alpha != 0 {
			v += alpha * z.At(idx...)
		}
		// <= so that a negative zero (which a pass through low-precision
		// storage can produce) clamps to +0 on both fused paths.
		if clamp && v <= 0 {
			v = 0
		}
		out.SetAt(v, idx...)
		if !next(idx, dims) {
			break
		}
	}
}
