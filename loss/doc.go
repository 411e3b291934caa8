// Copyright 2025 The pytorch-optimizer Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package loss provides loss functions over dense float32 tensors.
//
// # Overview
//
// This package contains:
//   - SoftF1Loss: differentiable relaxation of the F-beta score
//   - FocalLoss: cross entropy that down-weights easy examples
//   - DiceLoss: region overlap loss for segmentation
//   - CosineLoss and CosineSimilarity
//
// # Basic Usage
//
//	import "github.com/Vectorrent/pytorch-optimizer/loss"
//
//	criterion := loss.NewFocalLoss(1.0, 2.0)
//	value, err := criterion.Forward(logits, targets)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Every loss validates that prediction and target shapes match and
// reduces to a single scalar.
package loss
