// Copyright 2025 The pytorch-optimizer Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// Shape describes the dimension sizes of a tensor.
type Shape = tensor.Shape

// Tensor is a dense row-major float32 tensor.
type Tensor = tensor.Tensor

// Creation

// New creates a tensor that takes ownership of data.
func New(data []float32, shape Shape) (*Tensor, error) {
	return tensor.New(data, shape)
}

// FromSlice creates a tensor from a copy of data.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return tensor.Ones(shape)
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float32) *Tensor {
	return tensor.Full(shape, value)
}

// Linspace creates a 1-D tensor of n evenly spaced values from start
// to end inclusive.
func Linspace(start, end float32, n int) *Tensor {
	return tensor.Linspace(start, end, n)
}

// Eye creates an n by n identity matrix.
func Eye(n int) *Tensor {
	return tensor.Eye(n)
}

// Rand creates a tensor with uniform random values in [0, 1).
func Rand(shape Shape) *Tensor {
	return tensor.Rand(shape)
}

// RandSigned creates a tensor with uniform random values in [-1, 1).
func RandSigned(shape Shape) *Tensor {
	return tensor.RandSigned(shape)
}

// Randn creates a tensor with standard normal random values.
func Randn(shape Shape) *Tensor {
	return tensor.Randn(shape)
}

// Linear algebra

// Dot returns the inner product of two tensors of equal shape.
func Dot(a, b *Tensor) (float32, error) {
	return tensor.Dot(a, b)
}

// MatMul multiplies two matrices.
func MatMul(a, b *Tensor) (*Tensor, error) {
	return tensor.MatMul(a, b)
}

// MatVec multiplies a matrix by a vector.
func MatVec(m, v *Tensor) (*Tensor, error) {
	return tensor.MatVec(m, v)
}

// Transpose returns the transpose of a matrix.
func Transpose(t *Tensor) (*Tensor, error) {
	return tensor.Transpose(t)
}

// Permute reorders the axes of a tensor.
func Permute(t *Tensor, axes []int) (*Tensor, error) {
	return tensor.Permute(t, axes)
}

// TensorDot contracts a and b along the given axes.
func TensorDot(a, b *Tensor, axesA, axesB []int) (*Tensor, error) {
	return tensor.TensorDot(a, b, axesA, axesB)
}

// Split divides a tensor into chunks along axis.
func Split(t *Tensor, axis int, sizes []int) ([]*Tensor, error) {
	return tensor.Split(t, axis, sizes)
}

// Concat joins tensors along axis.
func Concat(tensors []*Tensor, axis int) (*Tensor, error) {
	return tensor.Concat(tensors, axis)
}
