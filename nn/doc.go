// Copyright 2025 The pytorch-optimizer Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides trainable parameters and a small set of layers.
//
// # Overview
//
// This package contains:
//   - Parameter: a named tensor that owns its gradient
//   - Linear: a fully connected layer with Xavier initialization
//
// # Basic Usage
//
//	import (
//	    "github.com/Vectorrent/pytorch-optimizer/nn"
//	    "github.com/Vectorrent/pytorch-optimizer/optimizer"
//	)
//
//	func main() {
//	    model := nn.NewLinear(784, 10)
//
//	    opt, err := optimizer.NewAdamW(
//	        model.Parameters(),
//	        optimizer.AdamWConfig{LR: 1e-3},
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    _ = opt
//	}
package nn
