package conv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-ml/strata/internal/tensor"
)

func TestSuggestMemoryFormat(t *testing.T) {
	make4 := func(f tensor.MemoryFormat) *tensor.RawTensor {
		r, err := tensor.NewRawWithFormat(tensor.Shape{1, 2, 3, 3}, tensor.Float32, tensor.CPU, f)
		require.NoError(t, err)
		return r
	}
	make5 := func(f tensor.MemoryFormat) *tensor.RawTensor {
		r, err := tensor.NewRawWithFormat(tensor.Shape{1, 2, 3, 3, 3}, tensor.Float32, tensor.CPU, f)
		require.NoError(t, err)
		return r
	}

	tests := []struct {
		name string
		a, b *tensor.RawTensor
		want tensor.MemoryFormat
	}{
		{"both contiguous", make4(tensor.Contiguous), make4(tensor.Contiguous), tensor.Contiguous},
		{"both channels last", make4(tensor.ChannelsLast), make4(tensor.ChannelsLast), tensor.ChannelsLast},
		{"only first channels last", make4(tensor.ChannelsLast), make4(tensor.Contiguous), tensor.Contiguous},
		{"only second channels last", make4(tensor.Contiguous), make4(tensor.ChannelsLast), tensor.Contiguous},
		{"both channels last 3d", make5(tensor.ChannelsLast3D), make5(tensor.ChannelsLast3D), tensor.ChannelsLast3D},
		{"3d disagreement", make5(tensor.ChannelsLast3D), make5(tensor.Contiguous), tensor.Contiguous},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, suggestMemoryFormat(tt.a, tt.b))
		})
	}
}
