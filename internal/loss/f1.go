package loss

import (
	"math"

	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// SoftF1Loss is a differentiable relaxation of 1 - F_beta. Predictions
// are treated as soft counts, so true positives, false positives and
// false negatives are sums of probabilities instead of thresholded
// counts.
type SoftF1Loss struct {
	beta float32
	eps  float32
}

// NewSoftF1Loss creates a soft F-beta loss. Zero values default to
// beta 1 and eps 1e-6.
func NewSoftF1Loss(beta, eps float32) *SoftF1Loss {
	if beta == 0 {
		beta = 1.0
	}
	if eps == 0 {
		eps = 1e-6
	}
	return &SoftF1Loss{beta: beta, eps: eps}
}

// Forward computes 1 - soft F-beta over the whole batch.
func (l *SoftF1Loss) Forward(pred, target *tensor.Tensor) (float32, error) {
	if err := checkShapes(pred, target); err != nil {
		return 0, err
	}

	var tp, fn, fp float64
	predData := pred.Data()
	targetData := target.Data()
	for i := range predData {
		y := float64(targetData[i])
		p := float64(predData[i])
		tp += y * p
		fn += (1 - y) * p
		fp += y * (1 - p)
	}

	eps := float64(l.eps)
	precision := tp / (tp + fp + eps)
	recall := tp / (tp + fn + eps)

	b2 := float64(l.beta) * float64(l.beta)
	f1 := (1 + b2) * precision * recall / (b2*precision + recall + eps)
	if math.IsNaN(f1) {
		f1 = 0
	}
	return float32(1.0 - f1), nil
}

// CosineSimilarity computes the similarity of two vectors flattened from
// the given tensors.
//
//	sim = <x1, x2> / (||x1|| * ||x2|| + eps)
func CosineSimilarity(x1, x2 *tensor.Tensor, eps float32) (float32, error) {
	if err := checkShapes(x1, x2); err != nil {
		return 0, err
	}
	if eps == 0 {
		eps = 1e-6
	}

	var p12, p1, p2 float64
	d1 := x1.Data()
	d2 := x2.Data()
	for i := range d1 {
		p12 += float64(d1[i]) * float64(d2[i])
		p1 += float64(d1[i]) * float64(d1[i])
		p2 += float64(d2[i]) * float64(d2[i])
	}
	return float32(p12 / (math.Sqrt(p1)*math.Sqrt(p2) + float64(eps))), nil
}

// CosineLoss penalizes angular distance: 1 - cosine similarity.
type CosineLoss struct {
	eps float32
}

// NewCosineLoss creates a cosine distance loss. A zero eps defaults to
// 1e-6.
func NewCosineLoss(eps float32) *CosineLoss {
	if eps == 0 {
		eps = 1e-6
	}
	return &CosineLoss{eps: eps}
}

// Forward computes 1 - cosine similarity of the flattened inputs.
func (l *CosineLoss) Forward(pred, target *tensor.Tensor) (float32, error) {
	sim, err := CosineSimilarity(pred, target, l.eps)
	if err != nil {
		return 0, err
	}
	return 1.0 - sim, nil
}
