package optimizer

import (
	"math"

	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// GetGlobalGradientNorm returns the L2 norm of all gradients taken
// together. Parameters without gradients contribute nothing.
func GetGlobalGradientNorm(params []*nn.Parameter) float32 {
	var sum float64
	for _, p := range params {
		grad := p.Grad()
		if grad == nil {
			continue
		}
		for _, g := range grad.Data() {
			sum += float64(g) * float64(g)
		}
	}
	return float32(math.Sqrt(sum))
}

// ClipGradNorm rescales all gradients in place so their global norm does
// not exceed maxNorm. Returns the norm before clipping.
func ClipGradNorm(params []*nn.Parameter, maxNorm float32) float32 {
	totalNorm := GetGlobalGradientNorm(params)
	if totalNorm <= maxNorm || totalNorm == 0 {
		return totalNorm
	}
	scale := maxNorm / (totalNorm + 1e-6)
	for _, p := range params {
		if grad := p.Grad(); grad != nil {
			grad.MulScalarInPlace(scale)
		}
	}
	return totalNorm
}

// NormalizeGradient scales a gradient in place to unit L2 norm.
// Zero gradients are left untouched.
func NormalizeGradient(grad *tensor.Tensor) {
	n := grad.Norm()
	if n == 0 {
		return
	}
	grad.MulScalarInPlace(1.0 / n)
}

// UnitNorm computes the L2 norm per slice along the first axis.
//
// For a 1-D tensor the result is a single element holding the full norm;
// for higher ranks element i is the norm of x[i, ...]. This is the
// per-output-channel norm AGC compares weights and gradients by.
func UnitNorm(x *tensor.Tensor) *tensor.Tensor {
	shape := x.Shape()
	if len(shape) <= 1 {
		out := tensor.Zeros(tensor.Shape{1})
		out.Data()[0] = x.Norm()
		return out
	}

	rows := shape[0]
	rowSize := x.NumElements() / rows
	out := tensor.Zeros(tensor.Shape{rows})
	data := x.Data()
	for i := 0; i < rows; i++ {
		var sum float64
		for _, v := range data[i*rowSize : (i+1)*rowSize] {
			sum += float64(v) * float64(v)
		}
		out.Data()[i] = float32(math.Sqrt(sum))
	}
	return out
}

// CentralizeGradient removes the per-slice mean from a gradient in place.
//
// Tensors of rank 1 and below are left untouched; for higher ranks each
// slice along the first axis is shifted to zero mean.
func CentralizeGradient(grad *tensor.Tensor) {
	shape := grad.Shape()
	if len(shape) <= 1 {
		return
	}

	rows := shape[0]
	rowSize := grad.NumElements() / rows
	data := grad.Data()
	for i := 0; i < rows; i++ {
		row := data[i*rowSize : (i+1)*rowSize]
		var sum float64
		for _, v := range row {
			sum += float64(v)
		}
		mean := float32(sum / float64(rowSize))
		for j := range row {
			row[j] -= mean
		}
	}
}

// AGC applies adaptive gradient clipping in place: each first-axis slice
// of the gradient is clipped relative to the norm of the matching
// parameter slice.
//
// Reference: "High-Performance Large-Scale Image Recognition Without
// Normalization" (Brock et al., 2021)
func AGC(param, grad *tensor.Tensor, agcEps, clipFactor float32) {
	pNorm := UnitNorm(param)
	gNorm := UnitNorm(grad)

	shape := grad.Shape()
	rows := 1
	rowSize := grad.NumElements()
	if len(shape) > 1 {
		rows = shape[0]
		rowSize = grad.NumElements() / rows
	}

	data := grad.Data()
	for i := 0; i < rows; i++ {
		maxNorm := pNorm.Data()[i]
		if maxNorm < agcEps {
			maxNorm = agcEps
		}
		maxNorm *= clipFactor

		gn := gNorm.Data()[i]
		if gn <= maxNorm {
			continue
		}
		if gn < 1e-6 {
			gn = 1e-6
		}
		scale := maxNorm / gn
		row := data[i*rowSize : (i+1)*rowSize]
		for j := range row {
			row[j] *= scale
		}
	}
}
