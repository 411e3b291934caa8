package optimizer

import (
	"math"

	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// AdaBelief adapts the step size to the "belief" in the gradient: the
// second moment tracks the variance of the gradient around its own
// exponential moving average instead of around zero.
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * g
//	s_t = beta2 * s_{t-1} + (1-beta2) * (g - m_t)² + eps
//	param = param - lr * m̂_t / (sqrt(ŝ_t) + eps)
//
// A large gradient that agrees with the current momentum direction takes a
// large step; a gradient that disagrees takes a small one.
//
// Reference: "AdaBelief Optimizer: Adapting Stepsizes by the Belief in
// Observed Gradients" (Zhuang et al., 2020)
type AdaBelief struct {
	params       []*nn.Parameter
	lr           float32
	beta1        float32
	beta2        float32
	eps          float32
	weightDecay  float32
	decouple     bool
	fixedDecay   bool
	rectify      bool
	amsGrad      bool
	smaThreshold float32
	t            int
	m            []*tensor.Tensor
	s            []*tensor.Tensor
	sMax         []*tensor.Tensor
}

// AdaBeliefConfig holds configuration for the AdaBelief optimizer.
type AdaBeliefConfig struct {
	LR           float32    // Learning rate (default: 0.001)
	Betas        [2]float32 // Running average coefficients (default: [0.9, 0.999])
	Eps          float32    // Term for numerical stability (default: 1e-16)
	WeightDecay  float32    // Weight decay coefficient (default: 0.0)
	CoupledWD    bool       // Fold decay into the gradient
	FixedDecay   bool       // Decay without lr scaling
	Rectify      bool       // RAdam-style variance rectification
	AMSGrad      bool       // Use the max of past second moments
	SMAThreshold float32    // Rectification threshold (default: 5)
}

// NewAdaBelief creates a new AdaBelief optimizer.
func NewAdaBelief(params []*nn.Parameter, config AdaBeliefConfig) (*AdaBelief, error) {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-16
	}
	if config.SMAThreshold == 0 {
		config.SMAThreshold = 5
	}
	if err := validateCommon(config.LR, config.Eps, config.WeightDecay); err != nil {
		return nil, err
	}
	if err := validateBetas(config.Betas); err != nil {
		return nil, err
	}

	n := len(params)
	return &AdaBelief{
		params:       params,
		lr:           config.LR,
		beta1:        config.Betas[0],
		beta2:        config.Betas[1],
		eps:          config.Eps,
		weightDecay:  config.WeightDecay,
		decouple:     !config.CoupledWD,
		fixedDecay:   config.FixedDecay,
		rectify:      config.Rectify,
		amsGrad:      config.AMSGrad,
		smaThreshold: config.SMAThreshold,
		m:            make([]*tensor.Tensor, n),
		s:            make([]*tensor.Tensor, n),
		sMax:         make([]*tensor.Tensor, n),
	}, nil
}

// Step performs a single optimization step.
func (a *AdaBelief) Step() error {
	a.t++

	bc1 := debias(a.beta1, a.t)
	bc2 := debias(a.beta2, a.t)
	rect, rectified := rectification(a.beta2, a.t, a.smaThreshold)

	for i, param := range a.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}

		if a.m[i] == nil {
			a.m[i] = tensor.Zeros(param.Tensor().Shape())
		}
		if a.s[i] == nil {
			a.s[i] = tensor.Zeros(param.Tensor().Shape())
		}
		if a.amsGrad && a.sMax[i] == nil {
			a.sMax[i] = tensor.Zeros(param.Tensor().Shape())
		}

		paramData := param.Tensor().Data()
		gradData := grad.Clone().Data()
		mData := a.m[i].Data()
		sData := a.s[i].Data()

		applyWeightDecay(paramData, gradData, a.lr, a.weightDecay, a.decouple, a.fixedDecay)

		for j := range paramData {
			g := gradData[j]
			mData[j] = a.beta1*mData[j] + (1.0-a.beta1)*g

			diff := g - mData[j]
			sData[j] = a.beta2*sData[j] + (1.0-a.beta2)*diff*diff + a.eps

			denomSq := sData[j]
			if a.amsGrad {
				sMaxData := a.sMax[i].Data()
				if sData[j] > sMaxData[j] {
					sMaxData[j] = sData[j]
				}
				denomSq = sMaxData[j]
			}

			mHat := mData[j] / bc1
			if !a.rectify {
				sHat := float32(math.Sqrt(float64(denomSq / bc2)))
				paramData[j] -= a.lr * mHat / (sHat + a.eps)
			} else if rectified {
				sHat := float32(math.Sqrt(float64(denomSq / bc2)))
				paramData[j] -= a.lr * rect * mHat / (sHat + a.eps)
			} else {
				paramData[j] -= a.lr * mHat
			}
		}
	}
	return nil
}

// ZeroGrad clears gradients for all parameters.
func (a *AdaBelief) ZeroGrad() {
	zeroGrads(a.params)
}

// GetLR returns the current learning rate.
func (a *AdaBelief) GetLR() float32 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *AdaBelief) SetLR(lr float32) {
	a.lr = lr
}

// Parameters returns the optimized parameters.
func (a *AdaBelief) Parameters() []*nn.Parameter {
	return a.params
}

// StateDict exports the moment buffers.
func (a *AdaBelief) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	buffersToStateDict(state, "exp_avg", a.m)
	buffersToStateDict(state, "exp_avg_var", a.s)
	if a.amsGrad {
		buffersToStateDict(state, "max_exp_avg_var", a.sMax)
	}
	stepToStateDict(state, a.t)
	return state
}

// LoadStateDict restores the moment buffers.
func (a *AdaBelief) LoadStateDict(state map[string]*tensor.Tensor) error {
	a.t = stepFromStateDict(state)
	a.m = make([]*tensor.Tensor, len(a.params))
	a.s = make([]*tensor.Tensor, len(a.params))
	a.sMax = make([]*tensor.Tensor, len(a.params))
	if err := buffersFromStateDict(state, "exp_avg", a.params, a.m); err != nil {
		return err
	}
	if err := buffersFromStateDict(state, "exp_avg_var", a.params, a.s); err != nil {
		return err
	}
	return buffersFromStateDict(state, "max_exp_avg_var", a.params, a.sMax)
}
