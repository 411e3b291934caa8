// Copyright 2025 The pytorch-optimizer Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package lrscheduler

import (
	"github.com/Vectorrent/pytorch-optimizer/internal/lrscheduler"
)

// Scheduler interface defines the common interface for all schedulers.
type Scheduler = lrscheduler.Scheduler

// Optimizer is the minimal surface a scheduler drives.
type Optimizer = lrscheduler.Optimizer

// Errors

var (
	// ErrInvalidHyperparameter reports a hyperparameter outside its
	// valid range.
	ErrInvalidHyperparameter = lrscheduler.ErrInvalidHyperparameter

	// ErrUnknownScheduler reports a name missing from the registry.
	ErrUnknownScheduler = lrscheduler.ErrUnknownScheduler
)

// Constant and step schedules

// ConstantLR keeps the learning rate fixed.
type ConstantLR = lrscheduler.ConstantLR

// NewConstantLR creates a scheduler that never changes the rate.
func NewConstantLR(opt Optimizer) *ConstantLR {
	return lrscheduler.NewConstantLR(opt)
}

// StepLR decays the learning rate by gamma every stepSize ticks.
type StepLR = lrscheduler.StepLR

// StepLRConfig contains configuration for StepLR.
type StepLRConfig = lrscheduler.StepLRConfig

// NewStepLR creates a new step decay scheduler.
func NewStepLR(opt Optimizer, config StepLRConfig) (*StepLR, error) {
	return lrscheduler.NewStepLR(opt, config)
}

// MultiStepLR decays the learning rate by gamma at each milestone.
type MultiStepLR = lrscheduler.MultiStepLR

// MultiStepLRConfig contains configuration for MultiStepLR.
type MultiStepLRConfig = lrscheduler.MultiStepLRConfig

// NewMultiStepLR creates a new milestone decay scheduler.
func NewMultiStepLR(opt Optimizer, config MultiStepLRConfig) (*MultiStepLR, error) {
	return lrscheduler.NewMultiStepLR(opt, config)
}

// Cosine schedules

// CosineAnnealingLR anneals the learning rate along a half cosine.
type CosineAnnealingLR = lrscheduler.CosineAnnealingLR

// CosineAnnealingLRConfig contains configuration for CosineAnnealingLR.
type CosineAnnealingLRConfig = lrscheduler.CosineAnnealingLRConfig

// NewCosineAnnealingLR creates a new cosine annealing scheduler.
func NewCosineAnnealingLR(opt Optimizer, config CosineAnnealingLRConfig) (*CosineAnnealingLR, error) {
	return lrscheduler.NewCosineAnnealingLR(opt, config)
}

// CosineAnnealingWarmupRestarts anneals with warm restarts and a
// per-cycle decay of the peak rate.
type CosineAnnealingWarmupRestarts = lrscheduler.CosineAnnealingWarmupRestarts

// CosineAnnealingWarmupRestartsConfig contains configuration for
// CosineAnnealingWarmupRestarts.
type CosineAnnealingWarmupRestartsConfig = lrscheduler.CosineAnnealingWarmupRestartsConfig

// NewCosineAnnealingWarmupRestarts creates a new warm restart scheduler.
func NewCosineAnnealingWarmupRestarts(opt Optimizer, config CosineAnnealingWarmupRestartsConfig) (*CosineAnnealingWarmupRestarts, error) {
	return lrscheduler.NewCosineAnnealingWarmupRestarts(opt, config)
}

// Warmup schedules

// WarmupConfig contains the shared configuration for schedulers with
// a linear warmup phase.
type WarmupConfig = lrscheduler.WarmupConfig

// LinearScheduler warms up linearly then decays linearly to MinLR.
type LinearScheduler = lrscheduler.LinearScheduler

// NewLinearScheduler creates a new linear warmup scheduler.
func NewLinearScheduler(opt Optimizer, config WarmupConfig) (*LinearScheduler, error) {
	return lrscheduler.NewLinearScheduler(opt, config)
}

// CosineScheduler warms up linearly then decays along a half cosine.
type CosineScheduler = lrscheduler.CosineScheduler

// NewCosineScheduler creates a new cosine warmup scheduler.
func NewCosineScheduler(opt Optimizer, config WarmupConfig) (*CosineScheduler, error) {
	return lrscheduler.NewCosineScheduler(opt, config)
}

// PolyScheduler warms up linearly then decays polynomially.
type PolyScheduler = lrscheduler.PolyScheduler

// PolySchedulerConfig contains configuration for PolyScheduler.
type PolySchedulerConfig = lrscheduler.PolySchedulerConfig

// NewPolyScheduler creates a new polynomial warmup scheduler.
func NewPolyScheduler(opt Optimizer, config PolySchedulerConfig) (*PolyScheduler, error) {
	return lrscheduler.NewPolyScheduler(opt, config)
}

// Registry

// Config represents the flat, serializable configuration understood
// by every registered scheduler.
type Config = lrscheduler.Config

// Factory builds a scheduler from an optimizer and a Config.
type Factory = lrscheduler.Factory

// LoadScheduler returns the factory registered under name.
func LoadScheduler(name string) (Factory, error) {
	return lrscheduler.LoadScheduler(name)
}

// CreateScheduler builds a registered scheduler by name.
func CreateScheduler(opt Optimizer, name string, config Config) (Scheduler, error) {
	return lrscheduler.CreateScheduler(opt, name, config)
}

// Supported returns the sorted list of registered scheduler names.
func Supported() []string {
	return lrscheduler.Supported()
}
