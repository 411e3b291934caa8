// Copyright 2025 The pytorch-optimizer Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// Parameter represents a trainable parameter and its gradient.
type Parameter = nn.Parameter

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return nn.NewParameter(name, t)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear = nn.Linear

// NewLinear creates a new linear layer with Xavier initialization.
//
// Example:
//
//	layer := nn.NewLinear(784, 128)
func NewLinear(inFeatures, outFeatures int) *Linear {
	return nn.NewLinear(inFeatures, outFeatures)
}

// LogisticRegression is a small two-layer classifier over 2-D inputs.
type LogisticRegression = nn.LogisticRegression

// NewLogisticRegression creates the classifier with Xavier init.
func NewLogisticRegression() *LogisticRegression {
	return nn.NewLogisticRegression()
}

// Xavier samples a tensor from the Xavier (Glorot) uniform distribution.
func Xavier(fanIn, fanOut int, shape tensor.Shape) *tensor.Tensor {
	return nn.Xavier(fanIn, fanOut, shape)
}

// Sigmoid applies the logistic function elementwise.
func Sigmoid(t *tensor.Tensor) *tensor.Tensor {
	return nn.Sigmoid(t)
}
