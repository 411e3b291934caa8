package optimizer

import (
	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// SGD implements Stochastic Gradient Descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + (1 - dampening) * gradient
//	param = param - lr * velocity
//
// With Nesterov momentum the lookahead gradient is applied:
//
//	param = param - lr * (gradient + momentum * velocity)
//
// With WeightDecouple the weight decay is decoupled from the gradient
// (the SGDW variant): the parameter is shrunk by lr*weight_decay before
// the gradient step instead of folding the decay into the gradient.
type SGD struct {
	params      []*nn.Parameter
	lr          float32
	momentum    float32
	dampening   float32
	weightDecay float32
	decouple    bool
	fixedDecay  bool
	nesterov    bool
	velocities  []*tensor.Tensor
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR             float32 // Learning rate (default: 0.01)
	Momentum       float32 // Momentum factor (default: 0.0, range: [0, 1))
	Dampening      float32 // Dampening for momentum (default: 0.0)
	WeightDecay    float32 // Weight decay coefficient (default: 0.0)
	WeightDecouple bool    // Decoupled weight decay (SGDW)
	FixedDecay     bool    // Decay without lr scaling (requires WeightDecouple)
	Nesterov       bool    // Nesterov momentum
}

// NewSGD creates a new SGD optimizer.
func NewSGD(params []*nn.Parameter, config SGDConfig) (*SGD, error) {
	if config.LR == 0 {
		config.LR = 0.01
	}
	if err := validateLR(config.LR); err != nil {
		return nil, err
	}
	if err := validateWeightDecay(config.WeightDecay); err != nil {
		return nil, err
	}
	if err := validateRange("momentum", config.Momentum, 0, 1); err != nil {
		return nil, err
	}

	return &SGD{
		params:      params,
		lr:          config.LR,
		momentum:    config.Momentum,
		dampening:   config.Dampening,
		weightDecay: config.WeightDecay,
		decouple:    config.WeightDecouple,
		fixedDecay:  config.FixedDecay,
		nesterov:    config.Nesterov,
		velocities:  make([]*tensor.Tensor, len(params)),
	}, nil
}

// Step performs a single optimization step.
//
// Parameters with no gradient are skipped.
func (s *SGD) Step() error {
	for i, param := range s.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}

		paramData := param.Tensor().Data()
		gradData := grad.Clone().Data()

		applyWeightDecay(paramData, gradData, s.lr, s.weightDecay, s.decouple, s.fixedDecay)

		update := gradData
		if s.momentum > 0 {
			if s.velocities[i] == nil {
				s.velocities[i] = tensor.Zeros(param.Tensor().Shape())
			}
			velData := s.velocities[i].Data()
			for j := range velData {
				velData[j] = s.momentum*velData[j] + (1.0-s.dampening)*gradData[j]
			}
			if s.nesterov {
				for j := range update {
					update[j] = gradData[j] + s.momentum*velData[j]
				}
			} else {
				update = velData
			}
		}

		for j := range paramData {
			paramData[j] -= s.lr * update[j]
		}
	}
	return nil
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD) ZeroGrad() {
	zeroGrads(s.params)
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float32 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float32) {
	s.lr = lr
}

// Parameters returns the optimized parameters.
func (s *SGD) Parameters() []*nn.Parameter {
	return s.params
}

// MomentumBuffers exposes the velocity buffers.
//
// Lookahead's pullback mode blends these with its slow-weight momentum.
// Entries are nil until the parameter has taken a momentum step.
func (s *SGD) MomentumBuffers() []*tensor.Tensor {
	return s.velocities
}

// StateDict returns the optimizer state for serialization.
//
// For SGD with momentum this exports the velocity buffers; without
// momentum the dict is empty.
func (s *SGD) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	if s.momentum == 0 {
		return state
	}
	buffersToStateDict(state, "velocity", s.velocities)
	return state
}

// LoadStateDict restores velocity buffers.
func (s *SGD) LoadStateDict(state map[string]*tensor.Tensor) error {
	if s.momentum == 0 {
		return nil
	}
	s.velocities = make([]*tensor.Tensor, len(s.params))
	return buffersFromStateDict(state, "velocity", s.params, s.velocities)
}
