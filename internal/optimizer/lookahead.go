package optimizer

import (
	"fmt"

	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// Pullback momentum modes for Lookahead.
const (
	PullbackNone     = "none"
	PullbackReset    = "reset"
	PullbackPullback = "pullback"
)

// momentumOptimizer is implemented by inner optimizers whose momentum
// buffers Lookahead can pull back on synchronization.
type momentumOptimizer interface {
	MomentumBuffers() []*tensor.Tensor
}

// Lookahead wraps any optimizer with slow/fast weight averaging: the
// inner optimizer explores for k steps, then the slow weights take an
// interpolated step toward the fast weights and the fast weights are
// reset onto them.
//
//	slow = slow + alpha * (fast - slow)     every k steps
//	fast = slow
//
// PullbackMomentum controls what happens to the inner optimizer's
// momentum on synchronization: "none" leaves it, "reset" zeroes it, and
// "pullback" interpolates it toward the momentum recorded at the last
// synchronization (only for inner optimizers exposing momentum buffers).
//
// Reference: "Lookahead Optimizer: k steps forward, 1 step back"
// (Zhang et al., 2019)
type Lookahead struct {
	base             Optimizer
	k                int
	alpha            float32
	pullbackMomentum string
	counter          int
	slowWeights      []*tensor.Tensor
	slowMomentum     []*tensor.Tensor
}

// LookaheadConfig holds configuration for the Lookahead wrapper.
type LookaheadConfig struct {
	K                int     // Synchronization period (default: 5, must be >= 1)
	Alpha            float32 // Slow weight step size (default: 0.5, range: (0, 1])
	PullbackMomentum string  // "none", "reset" or "pullback" (default: "none")
}

// NewLookahead wraps an optimizer with Lookahead slow weights.
func NewLookahead(base Optimizer, config LookaheadConfig) (*Lookahead, error) {
	if config.K == 0 {
		config.K = 5
	}
	if config.Alpha == 0 {
		config.Alpha = 0.5
	}
	if config.PullbackMomentum == "" {
		config.PullbackMomentum = PullbackNone
	}
	if config.K < 1 {
		return nil, fmt.Errorf("%w: lookahead k %d must be >= 1", ErrInvalidHyperparameter, config.K)
	}
	if config.Alpha < 0 || config.Alpha > 1 {
		return nil, fmt.Errorf("%w: lookahead alpha %g outside (0, 1]", ErrInvalidHyperparameter, config.Alpha)
	}
	switch config.PullbackMomentum {
	case PullbackNone, PullbackReset, PullbackPullback:
	default:
		return nil, fmt.Errorf("%w: invalid pullback momentum %q", ErrInvalidHyperparameter, config.PullbackMomentum)
	}

	params := base.Parameters()
	slow := make([]*tensor.Tensor, len(params))
	for i, p := range params {
		slow[i] = p.Tensor().Clone()
	}

	return &Lookahead{
		base:             base,
		k:                config.K,
		alpha:            config.Alpha,
		pullbackMomentum: config.PullbackMomentum,
		slowWeights:      slow,
		slowMomentum:     make([]*tensor.Tensor, len(params)),
	}, nil
}

// Step delegates to the inner optimizer and synchronizes the slow weights
// every k steps.
func (l *Lookahead) Step() error {
	if err := l.base.Step(); err != nil {
		return err
	}

	l.counter++
	if l.counter < l.k {
		return nil
	}
	l.counter = 0

	for i, p := range l.base.Parameters() {
		fastData := p.Tensor().Data()
		slowData := l.slowWeights[i].Data()
		for j := range slowData {
			slowData[j] += l.alpha * (fastData[j] - slowData[j])
			fastData[j] = slowData[j]
		}
	}
	l.syncMomentum()
	return nil
}

// syncMomentum applies the configured pullback to the inner optimizer's
// momentum buffers.
func (l *Lookahead) syncMomentum() {
	if l.pullbackMomentum == PullbackNone {
		return
	}
	inner, ok := l.base.(momentumOptimizer)
	if !ok {
		return
	}

	for i, buf := range inner.MomentumBuffers() {
		if buf == nil {
			continue
		}
		switch l.pullbackMomentum {
		case PullbackReset:
			data := buf.Data()
			for j := range data {
				data[j] = 0
			}
		case PullbackPullback:
			if l.slowMomentum[i] == nil {
				l.slowMomentum[i] = tensor.Zeros(buf.Shape())
			}
			bufData := buf.Data()
			slowData := l.slowMomentum[i].Data()
			for j := range bufData {
				bufData[j] = l.alpha*bufData[j] + (1.0-l.alpha)*slowData[j]
				slowData[j] = bufData[j]
			}
		}
	}
}

// ZeroGrad clears gradients for all parameters.
func (l *Lookahead) ZeroGrad() {
	l.base.ZeroGrad()
}

// GetLR returns the inner optimizer's learning rate.
func (l *Lookahead) GetLR() float32 {
	return l.base.GetLR()
}

// SetLR updates the inner optimizer's learning rate.
func (l *Lookahead) SetLR(lr float32) {
	l.base.SetLR(lr)
}

// Parameters returns the optimized parameters.
func (l *Lookahead) Parameters() []*nn.Parameter {
	return l.base.Parameters()
}

// StateDict exports the slow weights together with the inner optimizer's
// state.
func (l *Lookahead) StateDict() map[string]*tensor.Tensor {
	state := l.base.StateDict()
	buffersToStateDict(state, "slow", l.slowWeights)
	return state
}

// LoadStateDict restores the slow weights and the inner optimizer's state.
func (l *Lookahead) LoadStateDict(state map[string]*tensor.Tensor) error {
	if err := l.base.LoadStateDict(state); err != nil {
		return err
	}
	params := l.base.Parameters()
	l.slowWeights = make([]*tensor.Tensor, len(params))
	if err := buffersFromStateDict(state, "slow", params, l.slowWeights); err != nil {
		return err
	}
	for i, p := range params {
		if l.slowWeights[i] == nil {
			l.slowWeights[i] = p.Tensor().Clone()
		}
	}
	return nil
}
