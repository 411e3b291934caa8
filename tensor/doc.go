// Copyright 2025 The pytorch-optimizer Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense float32 tensor type the optimizer
// collection operates on.
//
// # Overview
//
// This package contains:
//   - Tensor: a dense row-major float32 tensor with elementwise and
//     reduction operations
//   - Shape: dimension sizes with stride and index arithmetic
//   - Linear algebra helpers: MatMul, MatVec, Permute, TensorDot,
//     Split, Concat
//
// # Basic Usage
//
//	import "github.com/Vectorrent/pytorch-optimizer/tensor"
//
//	func main() {
//	    w := tensor.Randn(tensor.Shape{128, 64})
//	    g := tensor.Ones(tensor.Shape{128, 64})
//
//	    // Elementwise update
//	    w.AddInPlace(g, -0.01)
//
//	    // Gram matrix of the weight
//	    gram, err := tensor.TensorDot(w, w, []int{1}, []int{1})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    _ = gram
//	}
package tensor
