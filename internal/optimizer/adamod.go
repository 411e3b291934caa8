package optimizer

import (
	"math"

	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// AdaMod bounds the per-element adaptive learning rate by its own
// exponential long-term memory, suppressing the extremely large rates
// Adam produces early in training:
//
//	eta_t = lr / (sqrt(v̂_t) + eps)
//	s_t   = beta3 * s_{t-1} + (1-beta3) * eta_t
//	eta_t = min(eta_t, s_t)
//	param = param - eta_t * m̂_t
//
// Reference: "An Adaptive and Momental Bound Method for Stochastic
// Learning" (Ding et al., 2019)
type AdaMod struct {
	params      []*nn.Parameter
	lr          float32
	beta1       float32
	beta2       float32
	beta3       float32
	eps         float32
	weightDecay float32
	t           int
	m           []*tensor.Tensor
	v           []*tensor.Tensor
	s           []*tensor.Tensor // Long-term memory of the step sizes
}

// AdaModConfig holds configuration for the AdaMod optimizer.
type AdaModConfig struct {
	LR          float32    // Learning rate (default: 0.001)
	Betas       [2]float32 // Running average coefficients (default: [0.9, 0.999])
	Beta3       float32    // Step-size memory coefficient (default: 0.999)
	Eps         float32    // Term for numerical stability (default: 1e-8)
	WeightDecay float32    // Weight decay coefficient, folded into the gradient (default: 0.0)
}

// NewAdaMod creates a new AdaMod optimizer.
func NewAdaMod(params []*nn.Parameter, config AdaModConfig) (*AdaMod, error) {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Beta3 == 0 {
		config.Beta3 = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	if err := validateCommon(config.LR, config.Eps, config.WeightDecay); err != nil {
		return nil, err
	}
	if err := validateBetas(config.Betas); err != nil {
		return nil, err
	}
	if err := validateRange("beta3", config.Beta3, 0, 1); err != nil {
		return nil, err
	}

	n := len(params)
	return &AdaMod{
		params:      params,
		lr:          config.LR,
		beta1:       config.Betas[0],
		beta2:       config.Betas[1],
		beta3:       config.Beta3,
		eps:         config.Eps,
		weightDecay: config.WeightDecay,
		m:           make([]*tensor.Tensor, n),
		v:           make([]*tensor.Tensor, n),
		s:           make([]*tensor.Tensor, n),
	}, nil
}

// Step performs a single optimization step.
func (a *AdaMod) Step() error {
	a.t++

	bc1 := debias(a.beta1, a.t)
	bc2 := debias(a.beta2, a.t)

	for i, param := range a.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}

		if a.m[i] == nil {
			a.m[i] = tensor.Zeros(param.Tensor().Shape())
		}
		if a.v[i] == nil {
			a.v[i] = tensor.Zeros(param.Tensor().Shape())
		}
		if a.s[i] == nil {
			a.s[i] = tensor.Zeros(param.Tensor().Shape())
		}

		paramData := param.Tensor().Data()
		gradData := grad.Clone().Data()
		mData := a.m[i].Data()
		vData := a.v[i].Data()
		sData := a.s[i].Data()

		applyWeightDecay(paramData, gradData, a.lr, a.weightDecay, false, false)

		for j := range paramData {
			g := gradData[j]
			mData[j] = a.beta1*mData[j] + (1.0-a.beta1)*g
			vData[j] = a.beta2*vData[j] + (1.0-a.beta2)*g*g

			mHat := mData[j] / bc1
			vHat := vData[j] / bc2

			eta := a.lr / (float32(math.Sqrt(float64(vHat))) + a.eps)
			sData[j] = a.beta3*sData[j] + (1.0-a.beta3)*eta
			if eta > sData[j] {
				eta = sData[j]
			}
			paramData[j] -= eta * mHat
		}
	}
	return nil
}

// ZeroGrad clears gradients for all parameters.
func (a *AdaMod) ZeroGrad() {
	zeroGrads(a.params)
}

// GetLR returns the current learning rate.
func (a *AdaMod) GetLR() float32 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *AdaMod) SetLR(lr float32) {
	a.lr = lr
}

// Parameters returns the optimized parameters.
func (a *AdaMod) Parameters() []*nn.Parameter {
	return a.params
}

// StateDict exports the moment and step-size memory buffers.
func (a *AdaMod) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	buffersToStateDict(state, "exp_avg", a.m)
	buffersToStateDict(state, "exp_avg_sq", a.v)
	buffersToStateDict(state, "exp_avg_lr", a.s)
	stepToStateDict(state, a.t)
	return state
}

// LoadStateDict restores the moment and step-size memory buffers.
func (a *AdaMod) LoadStateDict(state map[string]*tensor.Tensor) error {
	a.t = stepFromStateDict(state)
	a.m = make([]*tensor.Tensor, len(a.params))
	a.v = make([]*tensor.Tensor, len(a.params))
	a.s = make([]*tensor.Tensor, len(a.params))
	if err := buffersFromStateDict(state, "exp_avg", a.params, a.m); err != nil {
		return err
	}
	if err := buffersFromStateDict(state, "exp_avg_sq", a.params, a.v); err != nil {
		return err
	}
	return buffersFromStateDict(state, "exp_avg_lr", a.params, a.s)
}
