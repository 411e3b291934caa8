package optimizer

import (
	"math"

	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// MADGRAD implements momentumized, adaptive, dual-averaged gradient
// descent. Unlike Adam-family methods it accumulates weighted gradient
// sums from the initial point x0 and recomputes the iterate from them:
//
//	lambda_t = lr * sqrt(t+1)
//	s_t  = s_{t-1} + lambda_t * g
//	nu_t = nu_{t-1} + lambda_t * g²
//	z_t  = x0 - s_t / (cbrt(nu_t) + eps)
//	x_t  = (1 - c) * x_{t-1} + c * z_t       (c = 1 - momentum)
//
// Reference: "Adaptivity without Compromise: A Momentumized, Adaptive,
// Dual Averaged Gradient Method" (Defazio & Jelassi, 2021)
type MADGRAD struct {
	params      []*nn.Parameter
	lr          float32
	momentum    float32
	weightDecay float32
	eps         float32
	t           int
	gradSum     []*tensor.Tensor // s
	gradSumSq   []*tensor.Tensor // nu
	x0          []*tensor.Tensor // Initial parameter values
}

// MADGRADConfig holds configuration for the MADGRAD optimizer.
type MADGRADConfig struct {
	LR          float32 // Learning rate (default: 0.01)
	Momentum    float32 // Momentum factor (default: 0.9, range: [0, 1))
	WeightDecay float32 // Weight decay coefficient, folded into the gradient (default: 0.0)
	Eps         float32 // Term for numerical stability (default: 1e-6)
}

// NewMADGRAD creates a new MADGRAD optimizer.
func NewMADGRAD(params []*nn.Parameter, config MADGRADConfig) (*MADGRAD, error) {
	if config.LR == 0 {
		config.LR = 0.01
	}
	if config.Eps == 0 {
		config.Eps = 1e-6
	}
	if err := validateCommon(config.LR, config.Eps, config.WeightDecay); err != nil {
		return nil, err
	}
	if err := validateRange("momentum", config.Momentum, 0, 1); err != nil {
		return nil, err
	}

	n := len(params)
	return &MADGRAD{
		params:      params,
		lr:          config.LR,
		momentum:    config.Momentum,
		weightDecay: config.WeightDecay,
		eps:         config.Eps,
		gradSum:     make([]*tensor.Tensor, n),
		gradSumSq:   make([]*tensor.Tensor, n),
		x0:          make([]*tensor.Tensor, n),
	}, nil
}

// Step performs a single optimization step.
func (m *MADGRAD) Step() error {
	lambda := m.lr * float32(math.Sqrt(float64(m.t+1)))
	m.t++

	for i, param := range m.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}

		if m.gradSum[i] == nil {
			m.gradSum[i] = tensor.Zeros(param.Tensor().Shape())
		}
		if m.gradSumSq[i] == nil {
			m.gradSumSq[i] = tensor.Zeros(param.Tensor().Shape())
		}
		if m.x0[i] == nil {
			m.x0[i] = param.Tensor().Clone()
		}

		paramData := param.Tensor().Data()
		gradData := grad.Clone().Data()
		sData := m.gradSum[i].Data()
		nuData := m.gradSumSq[i].Data()
		x0Data := m.x0[i].Data()

		applyWeightDecay(paramData, gradData, m.lr, m.weightDecay, false, false)

		c := 1.0 - m.momentum
		for j := range paramData {
			g := gradData[j]
			sData[j] += lambda * g
			nuData[j] += lambda * g * g

			rms := float32(math.Cbrt(float64(nuData[j]))) + m.eps
			z := x0Data[j] - sData[j]/rms

			if m.momentum == 0 {
				paramData[j] = z
			} else {
				paramData[j] = (1.0-c)*paramData[j] + c*z
			}
		}
	}
	return nil
}

// ZeroGrad clears gradients for all parameters.
func (m *MADGRAD) ZeroGrad() {
	zeroGrads(m.params)
}

// GetLR returns the current learning rate.
func (m *MADGRAD) GetLR() float32 {
	return m.lr
}

// SetLR updates the learning rate.
func (m *MADGRAD) SetLR(lr float32) {
	m.lr = lr
}

// Parameters returns the optimized parameters.
func (m *MADGRAD) Parameters() []*nn.Parameter {
	return m.params
}

// StateDict exports the dual-averaging buffers.
func (m *MADGRAD) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	buffersToStateDict(state, "grad_sum", m.gradSum)
	buffersToStateDict(state, "grad_sum_sq", m.gradSumSq)
	buffersToStateDict(state, "x0", m.x0)
	stepToStateDict(state, m.t)
	return state
}

// LoadStateDict restores the dual-averaging buffers.
func (m *MADGRAD) LoadStateDict(state map[string]*tensor.Tensor) error {
	m.t = stepFromStateDict(state)
	n := len(m.params)
	m.gradSum = make([]*tensor.Tensor, n)
	m.gradSumSq = make([]*tensor.Tensor, n)
	m.x0 = make([]*tensor.Tensor, n)
	if err := buffersFromStateDict(state, "grad_sum", m.params, m.gradSum); err != nil {
		return err
	}
	if err := buffersFromStateDict(state, "grad_sum_sq", m.params, m.gradSumSq); err != nil {
		return err
	}
	return buffersFromStateDict(state, "x0", m.params, m.x0)
}
