// Copyright 2026 Strata ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package conv provides the public convolution dispatch API of Strata.
//
// A Dispatcher sits between tensor code and a raw execution backend: it
// validates operands, canonicalizes parameters, resolves memory layout,
// allocates results and routes each call to the matching backend primitive.
// Backends only compute; they never allocate or validate.
//
// Example:
//
//	backend := reference.New()
//	d := conv.NewDispatcher(backend, tensor.NewAllocator(), conv.Policy{})
//
//	out, err := d.Forward(input, weight, []int{1, 1}, []int{1, 1}, []int{1, 1}, 1)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	grads, err := d.Backward(input, gradOut, weight,
//	    []int{1, 1}, []int{1, 1}, []int{1, 1}, 1, [2]bool{true, true})
package conv

import (
	"github.com/pkg/errors"

	"github.com/strata-ml/strata/internal/conv"
	"github.com/strata-ml/strata/tensor"
)

// Dispatcher validates, allocates and routes convolution calls to one raw
// backend. It is safe for concurrent use.
type Dispatcher = conv.Dispatcher

// Policy is the explicit process-wide configuration a Dispatcher is built
// with.
type Policy = conv.Policy

// Geometry carries the per-call convolution parameters backend primitives
// receive alongside their tensors.
type Geometry = conv.Geometry

// Flags carries the execution policy bits sampled at dispatch time.
type Flags = conv.Flags

// RawBackend is the execution primitive set a Dispatcher drives.
type RawBackend = conv.RawBackend

// FusedBackend is the optional fused conv+add+relu primitive.
type FusedBackend = conv.FusedBackend

// FusedFallbackBackend is the alternate fused primitive exposed by backends
// built against older vendor libraries.
type FusedFallbackBackend = conv.FusedFallbackBackend

// Params is the canonical, comparable descriptor of one convolution call,
// usable directly as a plan-cache map key.
type Params = conv.Params

// Grads carries the optional backward results; nil fields were not
// requested.
type Grads = conv.Grads

// BackendError annotates a raw backend failure with the call's canonical
// parameters and a standalone reproduction snippet.
type BackendError = conv.BackendError

// Sentinel errors. Use errors.Is to classify failures.
var (
	ErrInvalidArgument = conv.ErrInvalidArgument
	ErrUnsupported     = conv.ErrUnsupported
)

// NewDispatcher builds a dispatcher around a backend, an allocator and an
// explicit policy. The fused strategy is probed once here.
func NewDispatcher(backend RawBackend, alloc tensor.Allocator, policy Policy) *Dispatcher {
	return conv.NewDispatcher(backend, alloc, policy)
}

// SetParams populates p from one call's arguments, zero-filling first so
// reused values never carry stale state.
func SetParams(
	p *Params,
	input, weight *tensor.RawTensor,
	padding, stride, dilation []int,
	groups int, deterministic, allowTF32 bool, deviceID int32,
) {
	conv.SetParams(p, input, weight, padding, stride, dilation, groups, deterministic, allowTF32, deviceID)
}

// IsInvalidArgument reports whether err was caused by operand or parameter
// validation, as opposed to a backend execution failure.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}
