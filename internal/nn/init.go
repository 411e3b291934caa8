package nn

import (
	"math"
	"math/rand"

	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// Xavier creates a tensor initialized with Xavier/Glorot uniform distribution.
//
// Values are drawn from U(-limit, limit) where limit = sqrt(6 / (fanIn + fanOut)).
// This keeps activation variance stable across layers.
func Xavier(fanIn, fanOut int, shape tensor.Shape) *tensor.Tensor {
	limit := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))
	t := tensor.Zeros(shape)
	data := t.Data()
	for i := range data {
		data[i] = (rand.Float32()*2 - 1) * limit //nolint:gosec // G404: ML uses math/rand intentionally
	}
	return t
}
