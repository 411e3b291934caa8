// Package tensor implements a dense float32 tensor for optimizer state math.
//
// This package provides:
//   - Tensor: contiguous row-major float32 storage with a Shape
//   - Creation functions: Zeros, Ones, Full, FromSlice, Eye, Rand, Randn
//   - Linear algebra used by matrix preconditioning: MatMul, MatVec,
//     TensorDot, Permute, Split, Concat
//
// Unlike a full ML framework tensor there is no dtype dispatch, no device
// abstraction, and no broadcasting: optimizer state buffers always share
// the exact shape of the parameter they track, so shape mismatches are
// programming errors rather than runtime situations to resolve.
package tensor

import (
	"fmt"
	"math"
)

// Tensor is a dense, contiguous, row-major float32 tensor.
type Tensor struct {
	data  []float32
	shape Shape
}

// New creates a tensor that takes ownership of the provided data slice.
//
// Returns an error if the shape is invalid or does not match len(data).
func New(data []float32, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}
	return &Tensor{data: data, shape: shape.Clone()}, nil
}

// Shape returns the tensor shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Data returns the underlying float32 slice.
//
// Mutating the slice mutates the tensor. Optimizer inner loops update
// parameters through this slice.
func (t *Tensor) Data() []float32 {
	return t.data
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return t.shape.NumElements()
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	data := make([]float32, len(t.data))
	copy(data, t.data)
	return &Tensor{data: data, shape: t.shape.Clone()}
}

// CopyFrom copies src's data into t. Shapes must match.
func (t *Tensor) CopyFrom(src *Tensor) error {
	if !t.shape.Equal(src.shape) {
		return fmt.Errorf("copy shape mismatch: %v vs %v", t.shape, src.shape)
	}
	copy(t.data, src.data)
	return nil
}

// Reshape returns a view over the same data with a new shape.
//
// The element count must be preserved.
func (t *Tensor) Reshape(shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != t.NumElements() {
		return nil, fmt.Errorf("cannot reshape %v to %v: element count differs", t.shape, shape)
	}
	return &Tensor{data: t.data, shape: shape.Clone()}, nil
}

// elementwise applies op element-by-element into a new tensor.
// Panics on shape mismatch: state buffers always match parameter shapes.
func (t *Tensor) elementwise(other *Tensor, name string, op func(a, b float32) float32) *Tensor {
	if !t.shape.Equal(other.shape) {
		panic(fmt.Sprintf("tensor.%s: shape mismatch %v vs %v", name, t.shape, other.shape))
	}
	out := make([]float32, len(t.data))
	for i := range t.data {
		out[i] = op(t.data[i], other.data[i])
	}
	return &Tensor{data: out, shape: t.shape.Clone()}
}

// Add returns t + other.
func (t *Tensor) Add(other *Tensor) *Tensor {
	return t.elementwise(other, "Add", func(a, b float32) float32 { return a + b })
}

// Sub returns t - other.
func (t *Tensor) Sub(other *Tensor) *Tensor {
	return t.elementwise(other, "Sub", func(a, b float32) float32 { return a - b })
}

// Mul returns the elementwise product t * other.
func (t *Tensor) Mul(other *Tensor) *Tensor {
	return t.elementwise(other, "Mul", func(a, b float32) float32 { return a * b })
}

// Div returns the elementwise quotient t / other.
func (t *Tensor) Div(other *Tensor) *Tensor {
	return t.elementwise(other, "Div", func(a, b float32) float32 { return a / b })
}

// AddScalar returns t + s.
func (t *Tensor) AddScalar(s float32) *Tensor {
	out := make([]float32, len(t.data))
	for i, v := range t.data {
		out[i] = v + s
	}
	return &Tensor{data: out, shape: t.shape.Clone()}
}

// MulScalar returns t * s.
func (t *Tensor) MulScalar(s float32) *Tensor {
	out := make([]float32, len(t.data))
	for i, v := range t.data {
		out[i] = v * s
	}
	return &Tensor{data: out, shape: t.shape.Clone()}
}

// MulScalarInPlace scales t by s in place.
func (t *Tensor) MulScalarInPlace(s float32) {
	for i := range t.data {
		t.data[i] *= s
	}
}

// AddInPlace accumulates s*other into t. Panics on shape mismatch.
func (t *Tensor) AddInPlace(other *Tensor, s float32) {
	if !t.shape.Equal(other.shape) {
		panic(fmt.Sprintf("tensor.AddInPlace: shape mismatch %v vs %v", t.shape, other.shape))
	}
	for i := range t.data {
		t.data[i] += s * other.data[i]
	}
}

// Pow returns the tensor raised elementwise to the given power.
func (t *Tensor) Pow(p float32) *Tensor {
	out := make([]float32, len(t.data))
	for i, v := range t.data {
		out[i] = float32(math.Pow(float64(v), float64(p)))
	}
	return &Tensor{data: out, shape: t.shape.Clone()}
}

// Sqrt returns the elementwise square root.
func (t *Tensor) Sqrt() *Tensor {
	out := make([]float32, len(t.data))
	for i, v := range t.data {
		out[i] = float32(math.Sqrt(float64(v)))
	}
	return &Tensor{data: out, shape: t.shape.Clone()}
}

// Abs returns the elementwise absolute value.
func (t *Tensor) Abs() *Tensor {
	out := make([]float32, len(t.data))
	for i, v := range t.data {
		if v < 0 {
			v = -v
		}
		out[i] = v
	}
	return &Tensor{data: out, shape: t.shape.Clone()}
}

// Clamp returns the tensor with every element limited to [min, max].
func (t *Tensor) Clamp(min, max float32) *Tensor {
	out := make([]float32, len(t.data))
	for i, v := range t.data {
		switch {
		case v < min:
			v = min
		case v > max:
			v = max
		}
		out[i] = v
	}
	return &Tensor{data: out, shape: t.shape.Clone()}
}

// Sign returns the elementwise sign (-1, 0, or 1).
func (t *Tensor) Sign() *Tensor {
	out := make([]float32, len(t.data))
	for i, v := range t.data {
		switch {
		case v > 0:
			out[i] = 1
		case v < 0:
			out[i] = -1
		}
	}
	return &Tensor{data: out, shape: t.shape.Clone()}
}

// Sum returns the sum of all elements.
func (t *Tensor) Sum() float32 {
	var sum float64
	for _, v := range t.data {
		sum += float64(v)
	}
	return float32(sum)
}

// Mean returns the arithmetic mean of all elements.
func (t *Tensor) Mean() float32 {
	return t.Sum() / float32(len(t.data))
}

// Norm returns the L2 (Frobenius) norm of the tensor.
func (t *Tensor) Norm() float32 {
	var sum float64
	for _, v := range t.data {
		sum += float64(v) * float64(v)
	}
	return float32(math.Sqrt(sum))
}

// Max returns the largest element value.
func (t *Tensor) Max() float32 {
	if len(t.data) == 0 {
		return 0
	}
	m := t.data[0]
	for _, v := range t.data[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// AbsMax returns the largest absolute element value.
func (t *Tensor) AbsMax() float32 {
	var m float32
	for _, v := range t.data {
		if v < 0 {
			v = -v
		}
		if v > m {
			m = v
		}
	}
	return m
}

// Dot returns the inner product of two tensors of equal element count.
func Dot(a, b *Tensor) (float32, error) {
	if len(a.data) != len(b.data) {
		return 0, fmt.Errorf("dot: element count mismatch %d vs %d", len(a.data), len(b.data))
	}
	var sum float64
	for i := range a.data {
		sum += float64(a.data[i]) * float64(b.data[i])
	}
	return float32(sum), nil
}
