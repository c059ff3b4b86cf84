// Copyright 2026 Strata ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package reference provides the pure Go convolution execution backend.
//
// The reference backend is the correctness baseline vendor backends are
// validated against. Rank-4 contiguous float32/float64 single-group
// forwards take an im2col+GEMM fast path; everything else goes through a
// generic strided loop. Results are deterministic.
//
// Example:
//
//	backend := reference.New()
//	d := conv.NewDispatcher(backend, tensor.NewAllocator(), conv.Policy{})
package reference

import (
	"github.com/strata-ml/strata/conv"
	internalref "github.com/strata-ml/strata/internal/backend/reference"
)

// Backend is the pure Go execution backend.
type Backend = internalref.Backend

// Compile-time checks that Backend implements the full primitive surface.
var (
	_ conv.RawBackend           = (*Backend)(nil)
	_ conv.FusedBackend         = (*Backend)(nil)
	_ conv.FusedFallbackBackend = (*Backend)(nil)
)

// New creates a reference backend.
func New() *Backend {
	return internalref.New()
}
