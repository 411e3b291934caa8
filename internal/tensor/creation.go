package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) *Tensor {
	return &Tensor{
		data:  make([]float32, shape.NumElements()),
		shape: shape.Clone(),
	}
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return Full(shape, 1)
}

// Full creates a tensor filled with a specific value.
func Full(shape Shape, value float32) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// FromSlice creates a tensor from a copy of the given data.
//
// Returns an error if the shape does not match the data length.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	buf := make([]float32, len(data))
	copy(buf, data)
	return New(buf, shape)
}

// Linspace creates a 1-D tensor of n evenly spaced values from start
// to end inclusive.
func Linspace(start, end float32, n int) *Tensor {
	t := Zeros(Shape{n})
	if n == 1 {
		t.data[0] = start
		return t
	}
	step := (end - start) / float32(n-1)
	for i := range t.data {
		t.data[i] = start + float32(i)*step
	}
	return t
}

// Eye creates an n x n identity matrix.
func Eye(n int) *Tensor {
	t := Zeros(Shape{n, n})
	for i := 0; i < n; i++ {
		t.data[i*n+i] = 1
	}
	return t
}

// Rand creates a tensor with values uniformly distributed in [0, 1).
//
// Uses math/rand, appropriate for ML/statistical purposes.
func Rand(shape Shape) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		t.data[i] = rand.Float32() //nolint:gosec // G404: ML uses math/rand intentionally
	}
	return t
}

// RandSigned creates a tensor with values uniformly distributed in (-1, 1).
//
// Used to seed power iteration with a random starting vector.
func RandSigned(shape Shape) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		t.data[i] = rand.Float32()*2 - 1 //nolint:gosec // G404: ML uses math/rand intentionally
	}
	return t
}

// Randn creates a tensor with values from a standard normal distribution.
// Uses the Box-Muller transform.
func Randn(shape Shape) *Tensor {
	t := Zeros(shape)
	for i := 0; i < len(t.data); i += 2 {
		u1 := rand.Float64() //nolint:gosec // G404: ML uses math/rand intentionally
		u2 := rand.Float64() //nolint:gosec // G404: ML uses math/rand intentionally
		z0 := math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
		z1 := math.Sqrt(-2.0*math.Log(u1)) * math.Sin(2.0*math.Pi*u2)
		t.data[i] = float32(z0)
		if i+1 < len(t.data) {
			t.data[i+1] = float32(z1)
		}
	}
	return t
}
