package loss

import (
	"math"

	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// FocalLoss down-weights well-classified examples so training focuses on
// the hard ones. Predictions are raw logits.
//
//	loss = alpha * (1 - p_t)^gamma * bce(logit, y)
//
// Reference: "Focal Loss for Dense Object Detection" (Lin et al., 2017)
type FocalLoss struct {
	alpha float32
	gamma float32
}

// NewFocalLoss creates a focal loss. Zero values default to alpha 1 and
// gamma 2.
func NewFocalLoss(alpha, gamma float32) *FocalLoss {
	if alpha == 0 {
		alpha = 1.0
	}
	if gamma == 0 {
		gamma = 2.0
	}
	return &FocalLoss{alpha: alpha, gamma: gamma}
}

// Forward computes the mean focal loss over logits and binary targets.
func (l *FocalLoss) Forward(pred, target *tensor.Tensor) (float32, error) {
	if err := checkShapes(pred, target); err != nil {
		return 0, err
	}

	var sum float64
	predData := pred.Data()
	targetData := target.Data()
	for i := range predData {
		bce := bceWithLogits(float64(predData[i]), float64(targetData[i]))
		pt := math.Exp(-bce)
		sum += float64(l.alpha) * math.Pow(1.0-pt, float64(l.gamma)) * bce
	}
	return float32(sum / float64(len(predData))), nil
}

// bceWithLogits is the numerically stable binary cross entropy on a raw
// logit:
//
//	max(x, 0) - x*y + log(1 + exp(-|x|))
func bceWithLogits(logit, y float64) float64 {
	return math.Max(logit, 0) - logit*y + math.Log1p(math.Exp(-math.Abs(logit)))
}
