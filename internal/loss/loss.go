// Package loss provides differentiable loss functions over dense float32
// tensors. Every loss validates that prediction and target shapes match
// and reduces to a single scalar.
package loss

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// ErrShapeMismatch is returned when prediction and target disagree.
var ErrShapeMismatch = errors.New("prediction and target shapes differ")

// Loss reduces a prediction/target pair to a scalar.
type Loss interface {
	Forward(pred, target *tensor.Tensor) (float32, error)
}

func checkShapes(pred, target *tensor.Tensor) error {
	if !pred.Shape().Equal(target.Shape()) {
		return fmt.Errorf("%w: %v vs %v", ErrShapeMismatch, pred.Shape(), target.Shape())
	}
	return nil
}

var supported = []string{
	"cosine",
	"dice",
	"focal",
	"soft_f1",
}

// Supported returns the available loss function names in sorted order.
func Supported() []string {
	names := append([]string(nil), supported...)
	sort.Strings(names)
	return names
}
