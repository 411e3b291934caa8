// Copyright 2025 The pytorch-optimizer Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package lrscheduler provides learning rate schedules for any
// optimizer exposing GetLR and SetLR.
//
// # Overview
//
// This package contains:
//   - Step schedules: ConstantLR, StepLR, MultiStepLR
//   - Cosine schedules: CosineAnnealingLR, CosineAnnealingWarmupRestarts
//   - Warmup schedules: LinearScheduler, CosineScheduler, PolyScheduler
//   - A registry that builds any scheduler by name from a flat Config
//
// # Basic Usage
//
//	import (
//	    "github.com/Vectorrent/pytorch-optimizer/lrscheduler"
//	    "github.com/Vectorrent/pytorch-optimizer/optimizer"
//	)
//
//	opt, _ := optimizer.NewAdamW(model.Parameters(), optimizer.AdamWConfig{LR: 1e-3})
//	sched, err := lrscheduler.NewCosineScheduler(opt, lrscheduler.WarmupConfig{
//	    TotalSteps:  10000,
//	    WarmupSteps: 500,
//	    MaxLR:       1e-3,
//	    MinLR:       1e-5,
//	    InitLR:      1e-6,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for step := 0; step < 10000; step++ {
//	    // forward, backward, opt.Step()
//	    sched.Step()
//	}
//
// Each Step call advances the schedule one tick, writes the new rate
// into the optimizer and returns it.
package lrscheduler
