// Package optimizer implements a collection of gradient-based optimization
// algorithms for training machine-learning models.
//
// All optimizers share the Optimizer interface:
//   - Step: apply one update using the gradients attached to the parameters
//   - ZeroGrad: clear gradients before the next backward pass
//   - GetLR / SetLR: read and adjust the learning rate (for scheduling)
//   - StateDict / LoadStateDict: export and restore optimizer state buffers
//
// Example usage:
//
//	opt, err := optimizer.NewAdamW(params, optimizer.AdamWConfig{LR: 1e-3})
//	if err != nil {
//	    return err
//	}
//
//	for step := 0; step < numSteps; step++ {
//	    computeGradients(params) // attach grads via Parameter.SetGrad
//	    if err := opt.Step(); err != nil {
//	        return err
//	    }
//	    opt.ZeroGrad()
//	}
package optimizer

import (
	"fmt"
	"math"

	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
//
// Optimizers update model parameters in place based on the gradients
// attached to them. Parameters with a nil gradient are skipped.
type Optimizer interface {
	// Step applies one gradient update to all parameters.
	Step() error

	// ZeroGrad clears all parameter gradients.
	//
	// This should be called after each step to prevent stale gradients
	// from leaking into the next iteration.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32

	// SetLR updates the learning rate.
	//
	// Used by learning rate schedulers.
	SetLR(lr float32)

	// Parameters returns the parameters this optimizer updates.
	Parameters() []*nn.Parameter

	// StateDict returns the optimizer state buffers for serialization.
	//
	// Keys are "<buffer>.<param_index>" (e.g. "exp_avg.0").
	StateDict() map[string]*tensor.Tensor

	// LoadStateDict restores optimizer state buffers.
	//
	// Buffers absent from the dict are left to lazy initialization on the
	// next Step. Returns an error on shape mismatch.
	LoadStateDict(state map[string]*tensor.Tensor) error
}

// zeroGrads clears gradients for a parameter list.
func zeroGrads(params []*nn.Parameter) {
	for _, p := range params {
		p.ZeroGrad()
	}
}

// debias returns the bias-correction factor 1 - beta^step.
func debias(beta float32, step int) float32 {
	return float32(1.0 - math.Pow(float64(beta), float64(step)))
}

// applyWeightDecay folds weight decay into the update.
//
// Decoupled decay shrinks the parameter directly (AdamW style); coupled
// decay adds wd*param to the gradient (classic L2 regularization). With
// fixedDecay the decoupled shrinkage does not scale with the learning rate.
func applyWeightDecay(paramData, gradData []float32, lr, weightDecay float32, decouple, fixedDecay bool) {
	if weightDecay == 0 {
		return
	}
	if decouple {
		ratio := 1.0 - lr*weightDecay
		if fixedDecay {
			ratio = 1.0 - weightDecay
		}
		for i := range paramData {
			paramData[i] *= ratio
		}
		return
	}
	for i := range gradData {
		gradData[i] += weightDecay * paramData[i]
	}
}

// buffersToStateDict exports indexed per-parameter buffers.
func buffersToStateDict(dst map[string]*tensor.Tensor, name string, buffers []*tensor.Tensor) {
	for i, buf := range buffers {
		if buf == nil {
			continue
		}
		dst[fmt.Sprintf("%s.%d", name, i)] = buf
	}
}

// buffersFromStateDict restores indexed per-parameter buffers, validating
// shapes against the corresponding parameters.
func buffersFromStateDict(src map[string]*tensor.Tensor, name string, params []*nn.Parameter, buffers []*tensor.Tensor) error {
	for i, p := range params {
		buf, ok := src[fmt.Sprintf("%s.%d", name, i)]
		if !ok {
			continue
		}
		if !buf.Shape().Equal(p.Tensor().Shape()) {
			return fmt.Errorf("%s shape mismatch for parameter %d: expected %v, got %v",
				name, i, p.Tensor().Shape(), buf.Shape())
		}
		buffers[i] = buf.Clone()
	}
	return nil
}

// stepToStateDict stores the step counter as a 1-element tensor, so the
// bias correction resumes where it left off after a restore.
func stepToStateDict(dst map[string]*tensor.Tensor, step int) {
	t := tensor.Zeros(tensor.Shape{1})
	t.Data()[0] = float32(step)
	dst["step"] = t
}

// stepFromStateDict recovers the step counter, 0 when absent.
func stepFromStateDict(src map[string]*tensor.Tensor) int {
	if t, ok := src["step"]; ok && t.NumElements() == 1 {
		return int(t.Data()[0])
	}
	return 0
}
