package conv

import (
	"log/slog"

	"github.com/strata-ml/strata/internal/tensor"
)

// fusedFunc is the probed conv+add+relu strategy.
type fusedFunc func(out, input, weight, z *tensor.RawTensor, alpha float64, bias *tensor.RawTensor, geom Geometry, flags Flags) error

// Dispatcher validates, allocates and routes convolution calls to one raw
// backend. It holds no per-call state: every method is synchronous,
// reentrant and a pure function of its arguments plus the read-only Policy.
type Dispatcher struct {
	backend RawBackend
	alloc   tensor.Allocator
	policy  Policy

	// Fused strategy, probed once at construction. Nil when the backend
	// exposes neither fused primitive.
	fused     fusedFunc
	fusedName string
}

// NewDispatcher builds a dispatcher around a backend, an allocator and an
// explicit policy. The fused conv+add+relu strategy is selected here, once:
// the primary primitive when the backend implements it, the fallback
// otherwise. Call sites never branch on backend capability again.
func NewDispatcher(backend RawBackend, alloc tensor.Allocator, policy Policy) *Dispatcher {
	d := &Dispatcher{
		backend: backend,
		alloc:   alloc,
		policy:  policy,
	}
	switch b := backend.(type) {
	case FusedBackend:
		d.fused = b.ConvAddReLU
		d.fusedName = "conv_add_relu"
	case FusedFallbackBackend:
		d.fused = b.ConvAddReLUFallback
		d.fusedName = "conv_add_relu_fallback"
	default:
		d.fusedName = "none"
	}
	slog.Debug("conv dispatcher initialized",
		"backend", backend.Name(),
		"fused_strategy", d.fusedName)
	return d
}

// Policy returns the configuration the dispatcher was built with.
func (d *Dispatcher) Policy() Policy {
	return d.policy
}

// flags samples the policy bits every backend call receives.
func (d *Dispatcher) flags() Flags {
	return Flags{
		Benchmark:     d.policy.Benchmark,
		Deterministic: d.policy.Deterministic,
		AllowTF32:     d.policy.AllowTF32,
	}
}

// backendError wraps a raw backend failure with the canonical parameters
// and a standalone repro snippet. The underlying error is left unchanged
// and reachable through errors.Unwrap.
func (d *Dispatcher) backendError(
	from string, err error,
	input, weight *tensor.RawTensor,
	padding, stride, dilation []int, groups int,
) error {
	var p Params
	SetParams(&p, input, weight, padding, stride, dilation, groups,
		d.policy.Deterministic, d.policy.AllowTF32, d.policy.DeviceID)
	return &BackendError{
		From:   from,
		Params: p,
		Repro:  reproFromParams(&p, d.policy),
		Err:    err,
	}
}
