package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor_CoversRangeExactlyOnce(t *testing.T) {
	const n = 1000
	var hits [n]int32

	For(n, Config{Workers: 4, MinPerWorker: 8}, func(i int) {
		atomic.AddInt32(&hits[i], 1)
	})

	for i, h := range hits {
		assert.Equal(t, int32(1), h, "index %d", i)
	}
}

func TestFor_SmallRangeStaysSequential(t *testing.T) {
	var order []int
	// 10 < 4*16, so the loop must run in place and in order.
	For(10, Config{Workers: 4, MinPerWorker: 16}, func(i int) {
		order = append(order, i)
	})
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestFor_ZeroIterations(t *testing.T) {
	called := false
	For(0, DefaultConfig(), func(int) { called = true })
	assert.False(t, called)
}
