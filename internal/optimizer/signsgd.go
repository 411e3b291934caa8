package optimizer

import (
	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// SignSGD updates parameters with the sign of the (momentum-smoothed)
// gradient, compressing each coordinate to a single bit of direction:
//
//	m_t   = beta * m_{t-1} + (1-beta) * g
//	param = param - lr * sign(m_t)
//
// With Beta = 0 this is plain signSGD; with momentum it is signum.
//
// Reference: "signSGD: Compressed Optimisation for Non-Convex Problems"
// (Bernstein et al., 2018)
type SignSGD struct {
	params      []*nn.Parameter
	lr          float32
	beta        float32
	weightDecay float32
	fixedDecay  bool
	m           []*tensor.Tensor
}

// SignSGDConfig holds configuration for the SignSGD optimizer.
type SignSGDConfig struct {
	LR          float32 // Learning rate (default: 0.01)
	Beta        float32 // Momentum factor (default: 0.9, range: [0, 1))
	WeightDecay float32 // Decoupled weight decay coefficient (default: 0.0)
	FixedDecay  bool    // Decay without lr scaling
}

// NewSignSGD creates a new SignSGD optimizer.
func NewSignSGD(params []*nn.Parameter, config SignSGDConfig) (*SignSGD, error) {
	if config.LR == 0 {
		config.LR = 0.01
	}
	if config.Beta == 0 {
		config.Beta = 0.9
	}
	if err := validateLR(config.LR); err != nil {
		return nil, err
	}
	if err := validateWeightDecay(config.WeightDecay); err != nil {
		return nil, err
	}
	if err := validateRange("beta", config.Beta, 0, 1); err != nil {
		return nil, err
	}

	return &SignSGD{
		params:      params,
		lr:          config.LR,
		beta:        config.Beta,
		weightDecay: config.WeightDecay,
		fixedDecay:  config.FixedDecay,
		m:           make([]*tensor.Tensor, len(params)),
	}, nil
}

// Step performs a single optimization step.
func (s *SignSGD) Step() error {
	for i, param := range s.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}

		if s.m[i] == nil {
			s.m[i] = tensor.Zeros(param.Tensor().Shape())
		}

		paramData := param.Tensor().Data()
		gradData := grad.Data()
		mData := s.m[i].Data()

		applyWeightDecay(paramData, nil, s.lr, s.weightDecay, true, s.fixedDecay)

		for j := range paramData {
			mData[j] = s.beta*mData[j] + (1.0-s.beta)*gradData[j]
			switch {
			case mData[j] > 0:
				paramData[j] -= s.lr
			case mData[j] < 0:
				paramData[j] += s.lr
			}
		}
	}
	return nil
}

// ZeroGrad clears gradients for all parameters.
func (s *SignSGD) ZeroGrad() {
	zeroGrads(s.params)
}

// GetLR returns the current learning rate.
func (s *SignSGD) GetLR() float32 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SignSGD) SetLR(lr float32) {
	s.lr = lr
}

// Parameters returns the optimized parameters.
func (s *SignSGD) Parameters() []*nn.Parameter {
	return s.params
}

// StateDict exports the momentum buffers.
func (s *SignSGD) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	buffersToStateDict(state, "momentum", s.m)
	return state
}

// LoadStateDict restores the momentum buffers.
func (s *SignSGD) LoadStateDict(state map[string]*tensor.Tensor) error {
	s.m = make([]*tensor.Tensor, len(s.params))
	return buffersFromStateDict(state, "momentum", s.params, s.m)
}

// Tiger is the "tight-fisted" variant of sign momentum: the momentum
// buffer is updated before the sign is taken, so the update direction is
// the sign of the smoothed gradient including the current one.
//
//	m_t   = beta * m_{t-1} + (1-beta) * g
//	param = param * (1 - lr * weight_decay) - lr * sign(m_t)
type Tiger struct {
	inner *SignSGD
}

// TigerConfig holds configuration for the Tiger optimizer.
type TigerConfig struct {
	LR          float32 // Learning rate (default: 0.001)
	Beta        float32 // Momentum factor (default: 0.965)
	WeightDecay float32 // Decoupled weight decay coefficient (default: 0.01)
}

// NewTiger creates a new Tiger optimizer.
func NewTiger(params []*nn.Parameter, config TigerConfig) (*Tiger, error) {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Beta == 0 {
		config.Beta = 0.965
	}
	inner, err := NewSignSGD(params, SignSGDConfig{
		LR:          config.LR,
		Beta:        config.Beta,
		WeightDecay: config.WeightDecay,
	})
	if err != nil {
		return nil, err
	}
	return &Tiger{inner: inner}, nil
}

// Step performs a single optimization step.
func (t *Tiger) Step() error { return t.inner.Step() }

// ZeroGrad clears gradients for all parameters.
func (t *Tiger) ZeroGrad() { t.inner.ZeroGrad() }

// GetLR returns the current learning rate.
func (t *Tiger) GetLR() float32 { return t.inner.GetLR() }

// SetLR updates the learning rate.
func (t *Tiger) SetLR(lr float32) { t.inner.SetLR(lr) }

// Parameters returns the optimized parameters.
func (t *Tiger) Parameters() []*nn.Parameter { return t.inner.Parameters() }

// StateDict exports the momentum buffers.
func (t *Tiger) StateDict() map[string]*tensor.Tensor { return t.inner.StateDict() }

// LoadStateDict restores the momentum buffers.
func (t *Tiger) LoadStateDict(state map[string]*tensor.Tensor) error {
	return t.inner.LoadStateDict(state)
}
