// Copyright 2026 Strata ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package conv_test

import (
	"testing"

	"github.com/strata-ml/strata/backend/reference"
	"github.com/strata-ml/strata/conv"
	"github.com/strata-ml/strata/tensor"
)

// TestForwardBackwardRoundTrip drives the public API end to end against
// the reference backend.
func TestForwardBackwardRoundTrip(t *testing.T) {
	d := conv.NewDispatcher(reference.New(), tensor.NewAllocator(), conv.Policy{})

	input, err := tensor.NewRaw(tensor.Shape{1, 1, 3, 3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	for i, v := range []float32{1, 2, 3, 4, 5, 6, 7, 8, 9} {
		input.AsFloat32()[i] = v
	}
	weight, err := tensor.NewRaw(tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	weight.AsFloat32()[0] = 1
	weight.AsFloat32()[3] = 1

	ones := []int{1, 1}
	zeros := []int{0, 0}

	out, err := d.Forward(input, weight, zeros, ones, ones, 1)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	if !out.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Forward shape = %v, want [1 1 2 2]", out.Shape())
	}
	want := []float32{6, 8, 12, 14}
	for i, w := range want {
		if got := out.AsFloat32()[i]; got != w {
			t.Errorf("out[%d] = %v, want %v", i, got, w)
		}
	}

	gradOut, err := tensor.NewRaw(out.Shape(), tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	for i := range gradOut.AsFloat32() {
		gradOut.AsFloat32()[i] = 1
	}

	grads, err := d.Backward(input, gradOut, weight, zeros, ones, ones, 1, [2]bool{true, true})
	if err != nil {
		t.Fatalf("Backward failed: %v", err)
	}
	if grads.Input == nil || grads.Weight == nil {
		t.Fatal("Backward returned nil gradients for a full mask")
	}
	if !grads.Input.Shape().Equal(input.Shape()) {
		t.Errorf("grad input shape = %v, want %v", grads.Input.Shape(), input.Shape())
	}
	if !grads.Weight.Shape().Equal(weight.Shape()) {
		t.Errorf("grad weight shape = %v, want %v", grads.Weight.Shape(), weight.Shape())
	}
}

// TestValidationErrorClassification checks the public error taxonomy.
func TestValidationErrorClassification(t *testing.T) {
	d := conv.NewDispatcher(reference.New(), tensor.NewAllocator(), conv.Policy{})

	input, _ := tensor.NewRaw(tensor.Shape{1, 2, 3, 3}, tensor.Float32, tensor.CPU)
	weight, _ := tensor.NewRaw(tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CPU)

	_, err := d.Forward(input, weight, []int{0, 0}, []int{1, 1}, []int{1, 1}, 1)
	if err == nil {
		t.Fatal("expected a channel mismatch error")
	}
	if !conv.IsInvalidArgument(err) {
		t.Errorf("expected an invalid-argument classification, got %v", err)
	}
}
