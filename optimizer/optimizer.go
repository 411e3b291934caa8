// Copyright 2025 The pytorch-optimizer Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optimizer

import (
	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/optimizer"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optimizer.Optimizer

// Errors

var (
	// ErrInvalidHyperparameter reports a hyperparameter outside its
	// valid range. Constructors wrap it with the offending value.
	ErrInvalidHyperparameter = optimizer.ErrInvalidHyperparameter

	// ErrUnknownOptimizer reports a name missing from the registry.
	ErrUnknownOptimizer = optimizer.ErrUnknownOptimizer
)

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum and Nesterov.
type SGD = optimizer.SGD

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optimizer.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	opt, err := optimizer.NewSGD(
//	    model.Parameters(),
//	    optimizer.SGDConfig{
//	        LR:       0.01,
//	        Momentum: 0.9,
//	    },
//	)
func NewSGD(params []*nn.Parameter, config SGDConfig) (*SGD, error) {
	return optimizer.NewSGD(params, config)
}

// AdamW (Adam with decoupled weight decay)

// AdamW represents the AdamW optimizer.
type AdamW = optimizer.AdamW

// AdamWConfig contains configuration for AdamW optimizer.
type AdamWConfig = optimizer.AdamWConfig

// NewAdamW creates a new AdamW optimizer with bias correction.
//
// Example:
//
//	opt, err := optimizer.NewAdamW(
//	    model.Parameters(),
//	    optimizer.AdamWConfig{
//	        LR:          1e-3,
//	        Betas:       [2]float32{0.9, 0.999},
//	        WeightDecay: 0.01,
//	    },
//	)
func NewAdamW(params []*nn.Parameter, config AdamWConfig) (*AdamW, error) {
	return optimizer.NewAdamW(params, config)
}

// RAdam (Rectified Adam)

// RAdam represents the RAdam optimizer.
type RAdam = optimizer.RAdam

// RAdamConfig contains configuration for RAdam optimizer.
type RAdamConfig = optimizer.RAdamConfig

// NewRAdam creates a new RAdam optimizer.
func NewRAdam(params []*nn.Parameter, config RAdamConfig) (*RAdam, error) {
	return optimizer.NewRAdam(params, config)
}

// AdaBelief

// AdaBelief represents the AdaBelief optimizer.
type AdaBelief = optimizer.AdaBelief

// AdaBeliefConfig contains configuration for AdaBelief optimizer.
type AdaBeliefConfig = optimizer.AdaBeliefConfig

// NewAdaBelief creates a new AdaBelief optimizer.
func NewAdaBelief(params []*nn.Parameter, config AdaBeliefConfig) (*AdaBelief, error) {
	return optimizer.NewAdaBelief(params, config)
}

// AdaBound

// AdaBound represents the AdaBound optimizer.
type AdaBound = optimizer.AdaBound

// AdaBoundConfig contains configuration for AdaBound optimizer.
type AdaBoundConfig = optimizer.AdaBoundConfig

// NewAdaBound creates a new AdaBound optimizer.
func NewAdaBound(params []*nn.Parameter, config AdaBoundConfig) (*AdaBound, error) {
	return optimizer.NewAdaBound(params, config)
}

// AdaMod

// AdaMod represents the AdaMod optimizer.
type AdaMod = optimizer.AdaMod

// AdaModConfig contains configuration for AdaMod optimizer.
type AdaModConfig = optimizer.AdaModConfig

// NewAdaMod creates a new AdaMod optimizer.
func NewAdaMod(params []*nn.Parameter, config AdaModConfig) (*AdaMod, error) {
	return optimizer.NewAdaMod(params, config)
}

// DiffGrad

// DiffGrad represents the diffGrad optimizer.
type DiffGrad = optimizer.DiffGrad

// DiffGradConfig contains configuration for diffGrad optimizer.
type DiffGradConfig = optimizer.DiffGradConfig

// NewDiffGrad creates a new diffGrad optimizer.
func NewDiffGrad(params []*nn.Parameter, config DiffGradConfig) (*DiffGrad, error) {
	return optimizer.NewDiffGrad(params, config)
}

// QHAdam (Quasi-Hyperbolic Adam)

// QHAdam represents the QHAdam optimizer.
type QHAdam = optimizer.QHAdam

// QHAdamConfig contains configuration for QHAdam optimizer.
type QHAdamConfig = optimizer.QHAdamConfig

// NewQHAdam creates a new QHAdam optimizer.
func NewQHAdam(params []*nn.Parameter, config QHAdamConfig) (*QHAdam, error) {
	return optimizer.NewQHAdam(params, config)
}

// Yogi

// Yogi represents the Yogi optimizer.
type Yogi = optimizer.Yogi

// YogiConfig contains configuration for Yogi optimizer.
type YogiConfig = optimizer.YogiConfig

// NewYogi creates a new Yogi optimizer.
func NewYogi(params []*nn.Parameter, config YogiConfig) (*Yogi, error) {
	return optimizer.NewYogi(params, config)
}

// Lamb (Layer-wise Adaptive Moments)

// Lamb represents the Lamb optimizer.
type Lamb = optimizer.Lamb

// LambConfig contains configuration for Lamb optimizer.
type LambConfig = optimizer.LambConfig

// NewLamb creates a new Lamb optimizer.
func NewLamb(params []*nn.Parameter, config LambConfig) (*Lamb, error) {
	return optimizer.NewLamb(params, config)
}

// LARS (Layer-wise Adaptive Rate Scaling)

// LARS represents the LARS optimizer.
type LARS = optimizer.LARS

// LARSConfig contains configuration for LARS optimizer.
type LARSConfig = optimizer.LARSConfig

// NewLARS creates a new LARS optimizer.
func NewLARS(params []*nn.Parameter, config LARSConfig) (*LARS, error) {
	return optimizer.NewLARS(params, config)
}

// Lion (EvoLved Sign Momentum)

// Lion represents the Lion optimizer.
type Lion = optimizer.Lion

// LionConfig contains configuration for Lion optimizer.
type LionConfig = optimizer.LionConfig

// NewLion creates a new Lion optimizer.
func NewLion(params []*nn.Parameter, config LionConfig) (*Lion, error) {
	return optimizer.NewLion(params, config)
}

// SignSGD and Tiger

// SignSGD represents the SignSGD optimizer.
type SignSGD = optimizer.SignSGD

// SignSGDConfig contains configuration for SignSGD optimizer.
type SignSGDConfig = optimizer.SignSGDConfig

// NewSignSGD creates a new SignSGD optimizer.
func NewSignSGD(params []*nn.Parameter, config SignSGDConfig) (*SignSGD, error) {
	return optimizer.NewSignSGD(params, config)
}

// Tiger represents the Tiger optimizer, a budget-friendly SignSGD
// variant with momentum and decoupled weight decay.
type Tiger = optimizer.Tiger

// TigerConfig contains configuration for Tiger optimizer.
type TigerConfig = optimizer.TigerConfig

// NewTiger creates a new Tiger optimizer.
func NewTiger(params []*nn.Parameter, config TigerConfig) (*Tiger, error) {
	return optimizer.NewTiger(params, config)
}

// MADGRAD

// MADGRAD represents the MADGRAD optimizer.
type MADGRAD = optimizer.MADGRAD

// MADGRADConfig contains configuration for MADGRAD optimizer.
type MADGRADConfig = optimizer.MADGRADConfig

// NewMADGRAD creates a new MADGRAD optimizer.
func NewMADGRAD(params []*nn.Parameter, config MADGRADConfig) (*MADGRAD, error) {
	return optimizer.NewMADGRAD(params, config)
}

// NovoGrad

// NovoGrad represents the NovoGrad optimizer.
type NovoGrad = optimizer.NovoGrad

// NovoGradConfig contains configuration for NovoGrad optimizer.
type NovoGradConfig = optimizer.NovoGradConfig

// NewNovoGrad creates a new NovoGrad optimizer.
func NewNovoGrad(params []*nn.Parameter, config NovoGradConfig) (*NovoGrad, error) {
	return optimizer.NewNovoGrad(params, config)
}

// Shampoo (scalable full-matrix preconditioning)

// Shampoo represents the Shampoo optimizer with block partitioning
// and grafting.
type Shampoo = optimizer.Shampoo

// ShampooConfig contains configuration for Shampoo optimizer.
type ShampooConfig = optimizer.ShampooConfig

// GraftType selects the grafting method for Shampoo.
type GraftType = optimizer.GraftType

// Grafting methods.
const (
	GraftNone    = optimizer.GraftNone
	GraftSGD     = optimizer.GraftSGD
	GraftAdagrad = optimizer.GraftAdagrad
	GraftRMSProp = optimizer.GraftRMSProp
	GraftSQRTN   = optimizer.GraftSQRTN
)

// PreconditionerType selects which axes Shampoo preconditions.
type PreconditionerType = optimizer.PreconditionerType

// Preconditioner types.
const (
	PreconditionerAll   = optimizer.PreconditionerAll
	PreconditionerInput = optimizer.PreconditionerInput
)

// NewShampoo creates a new Shampoo optimizer.
//
// Example:
//
//	opt, err := optimizer.NewShampoo(
//	    model.Parameters(),
//	    optimizer.ShampooConfig{
//	        LR:        1e-3,
//	        GraftType: optimizer.GraftSGD,
//	        BlockSize: 512,
//	    },
//	)
func NewShampoo(params []*nn.Parameter, config ShampooConfig) (*Shampoo, error) {
	return optimizer.NewShampoo(params, config)
}

// Wrappers

// Lookahead wraps a base optimizer with slow weights updated every
// k steps.
type Lookahead = optimizer.Lookahead

// LookaheadConfig contains configuration for the Lookahead wrapper.
type LookaheadConfig = optimizer.LookaheadConfig

// Pullback momentum modes for Lookahead.
const (
	PullbackNone     = optimizer.PullbackNone
	PullbackReset    = optimizer.PullbackReset
	PullbackPullback = optimizer.PullbackPullback
)

// NewLookahead wraps base with the Lookahead mechanism.
//
// Example:
//
//	base, _ := optimizer.NewAdamW(model.Parameters(), optimizer.AdamWConfig{LR: 1e-3})
//	opt, err := optimizer.NewLookahead(base, optimizer.LookaheadConfig{K: 5, Alpha: 0.5})
func NewLookahead(base Optimizer, config LookaheadConfig) (*Lookahead, error) {
	return optimizer.NewLookahead(base, config)
}

// SAM represents Sharpness-Aware Minimization. It needs two forward
// and backward passes per step, so its Step takes a closure instead
// of satisfying the Optimizer interface.
type SAM = optimizer.SAM

// SAMConfig contains configuration for the SAM wrapper.
type SAMConfig = optimizer.SAMConfig

// NewSAM wraps base with sharpness-aware minimization.
func NewSAM(base Optimizer, config SAMConfig) (*SAM, error) {
	return optimizer.NewSAM(base, config)
}

// PCGrad represents gradient surgery for multi-task learning.
type PCGrad = optimizer.PCGrad

// PCGradConfig contains configuration for the PCGrad wrapper.
type PCGradConfig = optimizer.PCGradConfig

// NewPCGrad wraps base with projecting conflicting gradients.
func NewPCGrad(base Optimizer, config PCGradConfig) (*PCGrad, error) {
	return optimizer.NewPCGrad(base, config)
}

// Gradient utilities

// GetGlobalGradientNorm returns the L2 norm over all gradients.
func GetGlobalGradientNorm(params []*nn.Parameter) float32 {
	return optimizer.GetGlobalGradientNorm(params)
}

// ClipGradNorm rescales gradients so their global norm is at most
// maxNorm and returns the norm before clipping.
func ClipGradNorm(params []*nn.Parameter, maxNorm float32) float32 {
	return optimizer.ClipGradNorm(params, maxNorm)
}

// NormalizeGradient scales grad to unit L2 norm in place.
func NormalizeGradient(grad *tensor.Tensor) {
	optimizer.NormalizeGradient(grad)
}

// UnitNorm returns the row-wise L2 norms of x.
func UnitNorm(x *tensor.Tensor) *tensor.Tensor {
	return optimizer.UnitNorm(x)
}

// CentralizeGradient subtracts the per-slice mean from grad in place.
func CentralizeGradient(grad *tensor.Tensor) {
	optimizer.CentralizeGradient(grad)
}

// AGC applies adaptive gradient clipping to grad in place.
func AGC(param, grad *tensor.Tensor, agcEps, clipFactor float32) {
	optimizer.AGC(param, grad, agcEps, clipFactor)
}

// Registry

// Config represents the flat, serializable configuration understood
// by every registered optimizer.
type Config = optimizer.Config

// Factory builds an optimizer from parameters and a Config.
type Factory = optimizer.Factory

// LoadConfig reads a YAML Config from path.
func LoadConfig(path string) (Config, error) {
	return optimizer.LoadConfig(path)
}

// LoadOptimizer returns the factory registered under name.
func LoadOptimizer(name string) (Factory, error) {
	return optimizer.LoadOptimizer(name)
}

// CreateOptimizer builds a registered optimizer by name, optionally
// wrapped with Lookahead.
//
// Example:
//
//	opt, err := optimizer.CreateOptimizer(
//	    model.Parameters(),
//	    "adamw",
//	    optimizer.Config{LR: 1e-3},
//	    false,
//	)
func CreateOptimizer(params []*nn.Parameter, name string, config Config, useLookahead bool) (Optimizer, error) {
	return optimizer.CreateOptimizer(params, name, config, useLookahead)
}

// Supported returns the sorted list of registered optimizer names.
func Supported() []string {
	return optimizer.Supported()
}
