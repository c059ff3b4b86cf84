package conv

import (
	"github.com/strata-ml/strata/internal/tensor"
)

// suggestMemoryFormat resolves the layout one backend call will use for
// every buffer involved. A channels-last layout is chosen only when both
// operands already favor it at the matching rank; any disagreement falls
// back to contiguous. The resolved format governs both the output
// allocation and the layout operands are repacked into before dispatch.
func suggestMemoryFormat(a, b *tensor.RawTensor) tensor.MemoryFormat {
	switch {
	case a.Dim() == 4 &&
		a.SuggestMemoryFormat() == tensor.ChannelsLast &&
		b.SuggestMemoryFormat() == tensor.ChannelsLast:
		return tensor.ChannelsLast
	case a.Dim() == 5 &&
		a.SuggestMemoryFormat() == tensor.ChannelsLast3D &&
		b.SuggestMemoryFormat() == tensor.ChannelsLast3D:
		return tensor.ChannelsLast3D
	default:
		return tensor.Contiguous
	}
}
