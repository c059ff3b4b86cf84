package reference

import (
	"github.com/strata-ml/strata/internal/conv"
	"github.com/strata-ml/strata/internal/parallel"
	"github.com/strata-ml/strata/internal/tensor"
)

// forwardGeneric computes a direct convolution over any spatial rank,
// group count, layout and dtype, walking logical indices through each
// tensor's strides. Accumulation is in float64 in a fixed iteration order
// per output element, so results are deterministic regardless of how the
// output slices are split across goroutines.
func forwardGeneric(out, in, w *tensor.RawTensor, geom conv.Geometry, cfg parallel.Config) {
	batch := in.Size(0)
	groups := geom.Groups
	cinPerGroup := w.Size(1)
	coutPerGroup := out.Size(1) / groups
	spatial := in.Dim() - 2

	outSpatial := out.Shape()[2:]
	kernel := w.Shape()[2:]

	if out.NumElements() == 0 {
		return
	}
	if emptyDims(kernel) || cinPerGroup == 0 {
		zeroFill(out)
		return
	}

	// One job per output channel plane; planes never share writes.
	parallel.For(batch*groups*coutPerGroup, cfg, func(job int) {
		n := job / (groups * coutPerGroup)
		g := job / coutPerGroup % groups
		oc := job % coutPerGroup
		ocGlobal := g*coutPerGroup + oc

		outPos := make([]int, spatial)
		kPos := make([]int, spatial)
		inIdx := make([]int, spatial+2)
		wIdx := make([]int, spatial+2)
		outIdx := make([]int, spatial+2)

		for {
			sum := 0.0
			for ic := 0; ic < cinPerGroup; ic++ {
				icGlobal := g*cinPerGroup + ic
				zero(kPos)
				for {
					ok := true
					for d := 0; d < spatial; d++ {
						p := outPos[d]*geom.Stride[d] - geom.Padding[d] + kPos[d]*geom.Dilation[d]
						if p < 0 || p >= in.Size(d+2) {
							ok = false
							break
						}
						inIdx[d+2] = p
					}
					if ok {
						inIdx[0], inIdx[1] = n, icGlobal
						wIdx[0], wIdx[1] = ocGlobal, ic
						copy(wIdx[2:], kPos)
						sum += in.At(inIdx...) * w.At(wIdx...)
					}
					if !next(kPos, kernel) {
						break
					}
				}
			}
			outIdx[0], outIdx[1] = n, ocGlobal
			copy(outIdx[2:], outPos)
			out.SetAt(sum, outIdx...)

			if !next(outPos, outSpatial) {
				break
			}
		}
	})
}

// backwardInputGeneric distributes each input gradient from the output
// positions that consumed it: scatter of the forward read pattern. The
// scatter writes overlap across output channels, so this kernel stays
// sequential.
func backwardInputGeneric(gradIn, gradOut, w *tensor.RawTensor, geom conv.Geometry) {
	zeroFill(gradIn)

	batch := gradIn.Size(0)
	groups := geom.Groups
	cinPerGroup := w.Size(1)
	coutPerGroup := gradOut.Size(1) / groups
	spatial := gradIn.Dim() - 2

	outSpatial := gradOut.Shape()[2:]
	kernel := w.Shape()[2:]

	if gradOut.NumElements() == 0 || emptyDims(kernel) || cinPerGroup == 0 {
		return
	}

	outPos := make([]int, spatial)
	kPos := make([]int, spatial)
	giIdx := make([]int, spatial+2)
	goIdx := make([]int, spatial+2)
	wIdx := make([]int, spatial+2)

	for n := 0; n < batch; n++ {
		for g := 0; g < groups; g++ {
			for oc := 0; oc < coutPerGroup; oc++ {
				ocGlobal := g*coutPerGroup + oc
				zero(outPos)
				for {
					goIdx[0], goIdx[1] = n, ocGlobal
					copy(goIdx[2:], outPos)
					gradVal := gradOut.At(goIdx...)

					for ic := 0; ic < cinPerGroup; ic++ {
						icGlobal := g*cinPerGroup + ic
						zero(kPos)
						for {
							ok := true
							for d := 0; d < spatial; d++ {
								p := outPos[d]*geom.Stride[d] - geom.Padding[d] + kPos[d]*geom.Dilation[d]
								if p < 0 || p >= gradIn.Size(d+2) {
									ok = false
									break
								}
								giIdx[d+2] = p
							}
							if ok {
								giIdx[0], giIdx[1] = n, icGlobal
								wIdx[0], wIdx[1] = ocGlobal, ic
								copy(wIdx[2:], kPos)
								gradIn.SetAt(gradIn.At(giIdx...)+gradVal*w.At(wIdx...), giIdx...)
							}
							if !next(kPos, kernel) {
								break
							}
						}
					}
					if !next(outPos, outSpatial) {
						break
					}
				}
			}
		}
	}
}

// backwardWeightGeneric accumulates each weight gradient over every batch
// sample and output position that multiplied it in the forward pass.
func backwardWeightGeneric(gradW, gradOut, in *tensor.RawTensor, geom conv.Geometry, cfg parallel.Config) {
	batch := in.Size(0)
	groups := geom.Groups
	cinPerGroup := gradW.Size(1)
	coutPerGroup := gradW.Size(0) / groups
	spatial := in.Dim() - 2

	outSpatial := gradOut.Shape()[2:]
	kernel := gradW.Shape()[2:]

	if gradW.NumElements() == 0 {
		return
	}
	if batch == 0 || emptyDims(outSpatial) {
		zeroFill(gradW)
		return
	}

	// One job per (output channel, input channel) filter slice.
	parallel.For(groups*coutPerGroup*cinPerGroup, cfg, func(job int) {
		g := job / (coutPerGroup * cinPerGroup)
		oc := job / cinPerGroup % coutPerGroup
		ic := job % cinPerGroup
		ocGlobal := g*coutPerGroup + oc
		icGlobal := g*cinPerGroup + ic

		outPos := make([]int, spatial)
		kPos := make([]int, spatial)
		inIdx := make([]int, spatial+2)
		goIdx := make([]int, spatial+2)
		gwIdx := make([]int, spatial+2)

		for {
			sum := 0.0
			for n := 0; n < batch; n++ {
				zero(outPos)
				for {
					ok := true
					for d := 0; d < spatial; d++ {
						p := outPos[d]*geom.Stride[d] - geom.Padding[d] + kPos[d]*geom.Dilation[d]
						if p < 0 || p >= in.Size(d+2) {
							ok = false
							break
						}
						inIdx[d+2] = p
					}
					if ok {
						inIdx[0], inIdx[1] = n, icGlobal
						goIdx[0], goIdx[1] = n, ocGlobal
						copy(goIdx[2:], outPos)
						sum += in.At(inIdx...) * gradOut.At(goIdx...)
					}
					if !next(outPos, outSpatial) {
						break
					}
				}
			}
			gwIdx[0], gwIdx[1] = ocGlobal, ic
			copy(gwIdx[2:], kPos)
			gradW.SetAt(sum, gwIdx...)

			if !next(kPos, kernel) {
				break
			}
		}
	})
}

// emptyDims reports whether an iteration space has no positions at all.
// Odometer loops execute their body before advancing, so zero-size
// dimensions must be rejected up front.
func emptyDims(dims []int) bool {
	for _, d := range dims {
		if d == 0 {
			return true
		}
	}
	return false
}

// next advances a multi-dimensional index odometer-style.
// Returns false once every position has been visited.
func next(idx, dims []int) bool {
	for d := len(idx) - 1; d >= 0; d-- {
		idx[d]++
		if idx[d] < dims[d] {
			return true
		}
		idx[d] = 0
	}
	return false
}

func zero(idx []int) {
	for i := range idx {
		idx[i] = 0
	}
}

func zeroFill(t *tensor.RawTensor) {
	data := t.Data()
	for i := range data {
		data[i] = 0
	}
}
