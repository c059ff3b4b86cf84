// Package conv is the dispatch core between a tensor engine and a raw
// convolution execution backend. It canonicalizes parameters, validates
// geometry across the forward, backward-input, backward-weight and
// transposed variants, resolves memory layout, allocates results and
// dispatches to backend primitives. It performs no numeric computation of
// its own.
package conv

import (
	"github.com/pkg/errors"
)

// Sentinel errors. Use errors.Is to classify failures.
var (
	// ErrInvalidArgument marks arity, rank, sign, dtype or device
	// mismatches detected before any backend call.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupported marks configurations no linked backend primitive can
	// serve, e.g. fused dispatch on a backend without a fused primitive.
	ErrUnsupported = errors.New("unsupported configuration")
)

func invalidArgf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}

func unsupportedf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrUnsupported, format, args...)
}

// BackendError surfaces a raw backend failure unchanged, annotated with a
// standalone reproduction snippet built from the call's parameters.
type BackendError struct {
	From   string
	Params Params
	Repro  string
	Err    error
}

// Error reports the backend failure followed by the repro snippet.
func (e *BackendError) Error() string {
	return e.From + ": " + e.Err.Error() + "\n\n" + e.Repro
}

// Unwrap exposes the raw backend error for errors.Is / errors.As.
func (e *BackendError) Unwrap() error {
	return e.Err
}
