package nn

import (
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// LogisticRegression is a small two-layer classifier over 2-D inputs,
// used as a shared fixture by convergence and factory tests.
type LogisticRegression struct {
	fc1 *Linear
	fc2 *Linear
}

// NewLogisticRegression creates the classifier with Xavier init.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{
		fc1: NewLinear(2, 2),
		fc2: NewLinear(2, 1),
	}
}

// Forward maps [batch, 2] inputs to [batch, 1] probabilities.
func (m *LogisticRegression) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	h, err := m.fc1.Forward(input)
	if err != nil {
		return nil, err
	}
	h = Sigmoid(h)
	out, err := m.fc2.Forward(h)
	if err != nil {
		return nil, err
	}
	return Sigmoid(out), nil
}

// Parameters returns the trainable parameters of both layers.
func (m *LogisticRegression) Parameters() []*Parameter {
	params := m.fc1.Parameters()
	return append(params, m.fc2.Parameters()...)
}
