package optimizer

import (
	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// LARS implements Layerwise Adaptive Rate Scaling.
//
// Each parameter's step is scaled by a local learning rate derived from
// the ratio of the weight norm to the gradient norm:
//
//	local_lr = trust * ||param|| / (||grad|| + weight_decay * ||param|| + eps)
//	velocity = momentum * velocity + local_lr * (grad + weight_decay * param)
//	param    = param - lr * velocity
//
// Reference: "Large Batch Training of Convolutional Networks"
// (You et al., 2017)
type LARS struct {
	params           []*nn.Parameter
	lr               float32
	momentum         float32
	weightDecay      float32
	trustCoefficient float32
	eps              float32
	nesterov         bool
	velocities       []*tensor.Tensor
}

// LARSConfig holds configuration for the LARS optimizer.
type LARSConfig struct {
	LR               float32 // Learning rate (default: 1.0)
	Momentum         float32 // Momentum factor (default: 0.9)
	WeightDecay      float32 // Weight decay coefficient (default: 0.0)
	TrustCoefficient float32 // Trust coefficient (default: 0.001)
	Eps              float32 // Term for numerical stability (default: 1e-8)
	Nesterov         bool    // Nesterov momentum
}

// NewLARS creates a new LARS optimizer.
func NewLARS(params []*nn.Parameter, config LARSConfig) (*LARS, error) {
	if config.LR == 0 {
		config.LR = 1.0
	}
	if config.Momentum == 0 {
		config.Momentum = 0.9
	}
	if config.TrustCoefficient == 0 {
		config.TrustCoefficient = 0.001
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	if err := validateCommon(config.LR, config.Eps, config.WeightDecay); err != nil {
		return nil, err
	}
	if err := validateRange("momentum", config.Momentum, 0, 1); err != nil {
		return nil, err
	}
	if err := validatePositive("trust coefficient", config.TrustCoefficient); err != nil {
		return nil, err
	}

	return &LARS{
		params:           params,
		lr:               config.LR,
		momentum:         config.Momentum,
		weightDecay:      config.WeightDecay,
		trustCoefficient: config.TrustCoefficient,
		eps:              config.Eps,
		nesterov:         config.Nesterov,
		velocities:       make([]*tensor.Tensor, len(params)),
	}, nil
}

// Step performs a single optimization step.
func (l *LARS) Step() error {
	for i, param := range l.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}

		paramData := param.Tensor().Data()
		gradData := grad.Data()

		weightNorm := norm(paramData)
		gradNorm := norm(gradData)

		localLR := float32(1.0)
		if weightNorm > 0 && gradNorm > 0 {
			localLR = l.trustCoefficient * weightNorm /
				(gradNorm + l.weightDecay*weightNorm + l.eps)
		}

		if l.velocities[i] == nil {
			l.velocities[i] = tensor.Zeros(param.Tensor().Shape())
		}
		velData := l.velocities[i].Data()

		for j := range paramData {
			g := localLR * (gradData[j] + l.weightDecay*paramData[j])
			velData[j] = l.momentum*velData[j] + g
			step := velData[j]
			if l.nesterov {
				step = g + l.momentum*velData[j]
			}
			paramData[j] -= l.lr * step
		}
	}
	return nil
}

// ZeroGrad clears gradients for all parameters.
func (l *LARS) ZeroGrad() {
	zeroGrads(l.params)
}

// GetLR returns the current learning rate.
func (l *LARS) GetLR() float32 {
	return l.lr
}

// SetLR updates the learning rate.
func (l *LARS) SetLR(lr float32) {
	l.lr = lr
}

// Parameters returns the optimized parameters.
func (l *LARS) Parameters() []*nn.Parameter {
	return l.params
}

// StateDict exports the velocity buffers.
func (l *LARS) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	buffersToStateDict(state, "velocity", l.velocities)
	return state
}

// LoadStateDict restores the velocity buffers.
func (l *LARS) LoadStateDict(state map[string]*tensor.Tensor) error {
	l.velocities = make([]*tensor.Tensor, len(l.params))
	return buffersFromStateDict(state, "velocity", l.params, l.velocities)
}
