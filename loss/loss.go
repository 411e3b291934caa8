// Copyright 2025 The pytorch-optimizer Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package loss

import (
	"github.com/Vectorrent/pytorch-optimizer/internal/loss"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// Loss interface defines the common interface for all losses.
type Loss = loss.Loss

// ErrShapeMismatch reports prediction and target shapes that differ.
var ErrShapeMismatch = loss.ErrShapeMismatch

// SoftF1Loss is a differentiable relaxation of the F-beta score.
type SoftF1Loss = loss.SoftF1Loss

// NewSoftF1Loss creates a new soft F1 loss.
func NewSoftF1Loss(beta, eps float32) *SoftF1Loss {
	return loss.NewSoftF1Loss(beta, eps)
}

// FocalLoss down-weights well-classified examples. It expects raw
// logits.
type FocalLoss = loss.FocalLoss

// NewFocalLoss creates a new focal loss.
func NewFocalLoss(alpha, gamma float32) *FocalLoss {
	return loss.NewFocalLoss(alpha, gamma)
}

// DiceLoss measures region overlap for segmentation targets.
type DiceLoss = loss.DiceLoss

// NewDiceLoss creates a new dice loss.
func NewDiceLoss(smooth float32) *DiceLoss {
	return loss.NewDiceLoss(smooth)
}

// CosineLoss is one minus the cosine similarity of the flattened
// inputs.
type CosineLoss = loss.CosineLoss

// NewCosineLoss creates a new cosine loss.
func NewCosineLoss(eps float32) *CosineLoss {
	return loss.NewCosineLoss(eps)
}

// CosineSimilarity returns the cosine of the angle between two
// tensors of equal shape.
func CosineSimilarity(x1, x2 *tensor.Tensor, eps float32) (float32, error) {
	return loss.CosineSimilarity(x1, x2, eps)
}

// Supported returns the sorted list of available loss names.
func Supported() []string {
	return loss.Supported()
}
