package nn

import (
	"fmt"
	"math"

	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter // [out_features, in_features]
	bias        *Parameter // [out_features]
}

// NewLinear creates a new Linear layer.
func NewLinear(inFeatures, outFeatures int) *Linear {
	weight := NewParameter("weight", Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}))
	bias := NewParameter("bias", tensor.Zeros(tensor.Shape{outFeatures}))

	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      weight,
		bias:        bias,
	}
}

// Forward computes y = x @ W.T + b.
//
// Input shape: [batch_size, in_features]
// Output shape: [batch_size, out_features]
func (l *Linear) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	shape := input.Shape()
	if len(shape) != 2 || shape[1] != l.inFeatures {
		return nil, fmt.Errorf("linear: expected input shape [batch, %d], got %v", l.inFeatures, shape)
	}

	wt, err := tensor.Transpose(l.weight.Tensor())
	if err != nil {
		return nil, err
	}
	out, err := tensor.MatMul(input, wt)
	if err != nil {
		return nil, err
	}

	outData := out.Data()
	biasData := l.bias.Tensor().Data()
	batch := shape[0]
	for i := 0; i < batch; i++ {
		row := outData[i*l.outFeatures : (i+1)*l.outFeatures]
		for j := range row {
			row[j] += biasData[j]
		}
	}
	return out, nil
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear) Bias() *Parameter {
	return l.bias
}

// Parameters returns the trainable parameters of the layer.
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// Sigmoid applies the logistic function elementwise into a new tensor.
func Sigmoid(t *tensor.Tensor) *tensor.Tensor {
	out := tensor.Zeros(t.Shape())
	in := t.Data()
	dst := out.Data()
	for i, v := range in {
		dst[i] = float32(1.0 / (1.0 + math.Exp(-float64(v))))
	}
	return out
}
