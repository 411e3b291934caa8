// Copyright 2025 The pytorch-optimizer Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optimizer provides a collection of gradient descent
// optimization algorithms for training neural networks.
//
// # Overview
//
// This package contains:
//   - Adaptive optimizers: AdamW, RAdam, AdaBelief, AdaBound, AdaMod,
//     diffGrad, QHAdam, Yogi, MADGRAD, NovoGrad
//   - Layer-wise optimizers: Lamb, LARS
//   - Sign-based optimizers: Lion, SignSGD, Tiger
//   - Full-matrix preconditioning: Shampoo with block partitioning
//     and grafting
//   - Wrappers: Lookahead, SAM, PCGrad
//   - Gradient utilities: clipping, normalization, centralization, AGC
//   - A registry that builds any optimizer by name from a flat Config
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
//	        optimizer.AdamWConfig{
//	            LR:          1e-3,
//	            Betas:       [2]float32{0.9, 0.999},
//	            WeightDecay: 0.01,
//	        },
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    // Training loop
//	    for step := 0; step < numSteps; step++ {
//	        opt.ZeroGrad()
//	        // forward pass, then write gradients into the parameters
//	        if err := opt.Step(); err != nil {
//	            log.Fatal(err)
//	        }
//	    }
//	}
//
// # Registry
//
// Every optimizer is registered under a lowercase name and can be
// built from a flat Config, optionally loaded from YAML:
//
//	config, err := optimizer.LoadConfig("train.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	opt, err := optimizer.CreateOptimizer(model.Parameters(), "lamb", config, true)
//
// # Wrappers
//
// Lookahead keeps slow weights that the fast weights are pulled back
// toward every k steps:
//
//	base, _ := optimizer.NewRAdam(model.Parameters(), optimizer.RAdamConfig{LR: 1e-3})
//	opt, err := optimizer.NewLookahead(base, optimizer.LookaheadConfig{
//	    K:     5,
//	    Alpha: 0.5,
//	})
//
// SAM needs the loss recomputed at the perturbed point, so its Step
// takes a closure that redoes the forward and backward pass:
//
//	sam, _ := optimizer.NewSAM(base, optimizer.SAMConfig{Rho: 0.05})
//	err := sam.Step(func() error {
//	    return computeGradients(model)
//	})
//
// # State
//
// Optimizers serialize their internal buffers through StateDict and
// restore them with LoadStateDict, so training can resume exactly
// where it stopped.
package optimizer
