package conv

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-ml/strata/internal/tensor"
)

func setTestParams(t *testing.T, p *Params, inputShape, weightShape tensor.Shape, padding, stride, dilation []int, groups int) {
	t.Helper()
	input := mustRaw(t, inputShape, tensor.Float32, tensor.CPU)
	weight := mustRaw(t, weightShape, tensor.Float32, tensor.CPU)
	SetParams(p, input, weight, padding, stride, dilation, groups, false, true, 0)
}

func TestSetParams_StructurallyEqualCallsCompareEqual(t *testing.T) {
	var a, b Params
	setTestParams(t, &a, tensor.Shape{2, 3, 8, 8}, tensor.Shape{4, 3, 3, 3}, []int{1, 1}, []int{1, 1}, []int{1, 1}, 1)
	setTestParams(t, &b, tensor.Shape{2, 3, 8, 8}, tensor.Shape{4, 3, 3, 3}, []int{1, 1}, []int{1, 1}, []int{1, 1}, 1)

	assert.Empty(t, cmp.Diff(a, b))
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestSetParams_ZeroFillsStaleState(t *testing.T) {
	// Populate with a rank-5 call, then reuse the same value for a rank-3
	// call. The trailing array slots of the first call must not leak into
	// the second: a reused Params must compare equal to a fresh one.
	var reused, fresh Params
	setTestParams(t, &reused, tensor.Shape{2, 3, 4, 5, 6}, tensor.Shape{4, 3, 2, 2, 2},
		[]int{1, 2, 3}, []int{1, 2, 3}, []int{1, 2, 3}, 1)
	setTestParams(t, &reused, tensor.Shape{2, 3, 8}, tensor.Shape{4, 3, 3},
		[]int{1}, []int{1}, []int{1}, 1)
	setTestParams(t, &fresh, tensor.Shape{2, 3, 8}, tensor.Shape{4, 3, 3},
		[]int{1}, []int{1}, []int{1}, 1)

	assert.Empty(t, cmp.Diff(fresh, reused))
	assert.Equal(t, fresh.Hash(), reused.Hash())
}

func TestParams_HashSeparatesCalls(t *testing.T) {
	var a, b Params
	setTestParams(t, &a, tensor.Shape{2, 3, 8, 8}, tensor.Shape{4, 3, 3, 3}, []int{1, 1}, []int{1, 1}, []int{1, 1}, 1)
	setTestParams(t, &b, tensor.Shape{2, 3, 8, 8}, tensor.Shape{4, 3, 3, 3}, []int{0, 0}, []int{1, 1}, []int{1, 1}, 1)
	assert.NotEqual(t, a.Hash(), b.Hash())

	setTestParams(t, &b, tensor.Shape{2, 3, 8, 8}, tensor.Shape{4, 3, 3, 3}, []int{1, 1}, []int{1, 1}, []int{1, 1}, 3)
	assert.NotEqual(t, a.Hash(), b.Hash())
}

// TestParams_UsableAsMapKey exercises the plan-cache contract: Params is a
// plain comparable value, so a map keyed on it must hit for structurally
// equal calls built from distinct tensors.
func TestParams_UsableAsMapKey(t *testing.T) {
	cache := map[Params]string{}

	var a, b Params
	setTestParams(t, &a, tensor.Shape{2, 3, 8, 8}, tensor.Shape{4, 3, 3, 3}, []int{1, 1}, []int{1, 1}, []int{1, 1}, 1)
	setTestParams(t, &b, tensor.Shape{2, 3, 8, 8}, tensor.Shape{4, 3, 3, 3}, []int{1, 1}, []int{1, 1}, []int{1, 1}, 1)

	cache[a] = "plan"
	got, ok := cache[b]
	require.True(t, ok)
	assert.Equal(t, "plan", got)
}

func TestParams_String(t *testing.T) {
	var p Params
	setTestParams(t, &p, tensor.Shape{2, 3, 8, 8}, tensor.Shape{4, 3, 3, 3}, []int{1, 2}, []int{3, 4}, []int{1, 1}, 2)

	s := p.String()
	assert.Contains(t, s, "data_type = float32")
	assert.Contains(t, s, "padding = [1 2]")
	assert.Contains(t, s, "stride = [3 4]")
	assert.Contains(t, s, "groups = 2")
	assert.Contains(t, s, "allow_tf32 = true")
}
