package loss

import (
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// DiceLoss measures overlap between soft predictions and binary targets:
// 1 minus the soft Dice score. Predictions are probabilities.
//
//	dice = (2 * |P ∩ T| + smooth) / (|P| + |T| + smooth)
type DiceLoss struct {
	smooth float32
}

// NewDiceLoss creates a Dice loss. A zero smooth defaults to 1e-6.
func NewDiceLoss(smooth float32) *DiceLoss {
	if smooth == 0 {
		smooth = 1e-6
	}
	return &DiceLoss{smooth: smooth}
}

// Forward computes 1 - soft Dice score over the whole batch.
func (l *DiceLoss) Forward(pred, target *tensor.Tensor) (float32, error) {
	if err := checkShapes(pred, target); err != nil {
		return 0, err
	}

	var intersection, cardinality float64
	predData := pred.Data()
	targetData := target.Data()
	for i := range predData {
		intersection += float64(predData[i]) * float64(targetData[i])
		cardinality += float64(predData[i]) + float64(targetData[i])
	}

	smooth := float64(l.smooth)
	dice := (2.0*intersection + smooth) / (cardinality + smooth)
	return float32(1.0 - dice), nil
}
