package optimizer

import (
	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// Lion implements the evolved sign-momentum optimizer.
//
// Lion keeps only a single momentum buffer and updates with the sign of
// an interpolation between momentum and gradient:
//
//	update = sign(beta1 * m_{t-1} + (1-beta1) * g)
//	m_t    = beta2 * m_{t-1} + (1-beta2) * g
//	param  = param * (1 - lr * weight_decay) - lr * update
//
// Because only the sign is used, Lion typically wants a 3-10x smaller
// learning rate and correspondingly larger weight decay than AdamW.
//
// Reference: "Symbolic Discovery of Optimization Algorithms"
// (Chen et al., 2023)
type Lion struct {
	params      []*nn.Parameter
	lr          float32
	beta1       float32
	beta2       float32
	weightDecay float32
	fixedDecay  bool
	m           []*tensor.Tensor
}

// LionConfig holds configuration for the Lion optimizer.
type LionConfig struct {
	LR          float32    // Learning rate (default: 1e-4)
	Betas       [2]float32 // Interpolation and momentum coefficients (default: [0.9, 0.99])
	WeightDecay float32    // Decoupled weight decay coefficient (default: 0.0)
	FixedDecay  bool       // Decay without lr scaling
}

// NewLion creates a new Lion optimizer.
func NewLion(params []*nn.Parameter, config LionConfig) (*Lion, error) {
	if config.LR == 0 {
		config.LR = 1e-4
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.99
	}
	if err := validateLR(config.LR); err != nil {
		return nil, err
	}
	if err := validateWeightDecay(config.WeightDecay); err != nil {
		return nil, err
	}
	if err := validateBetas(config.Betas); err != nil {
		return nil, err
	}

	return &Lion{
		params:      params,
		lr:          config.LR,
		beta1:       config.Betas[0],
		beta2:       config.Betas[1],
		weightDecay: config.WeightDecay,
		fixedDecay:  config.FixedDecay,
		m:           make([]*tensor.Tensor, len(params)),
	}, nil
}

// Step performs a single optimization step.
func (l *Lion) Step() error {
	for i, param := range l.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}

		if l.m[i] == nil {
			l.m[i] = tensor.Zeros(param.Tensor().Shape())
		}

		paramData := param.Tensor().Data()
		gradData := grad.Data()
		mData := l.m[i].Data()

		applyWeightDecay(paramData, nil, l.lr, l.weightDecay, true, l.fixedDecay)

		for j := range paramData {
			g := gradData[j]

			blend := l.beta1*mData[j] + (1.0-l.beta1)*g
			switch {
			case blend > 0:
				paramData[j] -= l.lr
			case blend < 0:
				paramData[j] += l.lr
			}

			mData[j] = l.beta2*mData[j] + (1.0-l.beta2)*g
		}
	}
	return nil
}

// ZeroGrad clears gradients for all parameters.
func (l *Lion) ZeroGrad() {
	zeroGrads(l.params)
}

// GetLR returns the current learning rate.
func (l *Lion) GetLR() float32 {
	return l.lr
}

// SetLR updates the learning rate.
func (l *Lion) SetLR(lr float32) {
	l.lr = lr
}

// Parameters returns the optimized parameters.
func (l *Lion) Parameters() []*nn.Parameter {
	return l.params
}

// StateDict exports the momentum buffers.
func (l *Lion) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	buffersToStateDict(state, "exp_avg", l.m)
	return state
}

// LoadStateDict restores the momentum buffers.
func (l *Lion) LoadStateDict(state map[string]*tensor.Tensor) error {
	l.m = make([]*tensor.Tensor, len(l.params))
	return buffersFromStateDict(state, "exp_avg", l.params, l.m)
}
