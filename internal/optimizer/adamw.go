package optimizer

import (
	"math"

	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// AdamW implements Adam with decoupled weight decay.
//
// Adam maintains exponential moving averages of gradients (first moment)
// and squared gradients (second moment), with bias correction to
// compensate for zero initialization:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²
//	step_size = lr * sqrt(1 - beta2^t) / (1 - beta1^t)
//	param = param * (1 - lr * weight_decay)
//	param = param - step_size * m_t / (sqrt(v_t) + eps)
//
// Both bias corrections are folded into the step size, which keeps the
// denominator's epsilon independent of the timestep.
//
// Reference: "Decoupled Weight Decay Regularization" (Loshchilov & Hutter, 2019)
type AdamW struct {
	params      []*nn.Parameter
	lr          float32
	beta1       float32
	beta2       float32
	eps         float32
	weightDecay float32
	decouple    bool
	fixedDecay  bool
	amsGrad     bool
	t           int // Timestep for bias correction
	m           []*tensor.Tensor
	v           []*tensor.Tensor
	vMax        []*tensor.Tensor // Running max of v, AMSGrad only
}

// AdamWConfig holds configuration for the AdamW optimizer.
type AdamWConfig struct {
	LR          float32    // Learning rate (default: 0.001)
	Betas       [2]float32 // Running average coefficients (default: [0.9, 0.999])
	Eps         float32    // Term for numerical stability (default: 1e-8)
	WeightDecay float32    // Decoupled weight decay coefficient (default: 0.0)
	CoupledWD   bool       // Fold decay into the gradient (classic Adam L2)
	FixedDecay  bool       // Decay without lr scaling
	AMSGrad     bool       // Use the max of past second moments
}

// NewAdamW creates a new AdamW optimizer.
//
// Default hyperparameters:
//   - LR: 0.001
//   - Betas: [0.9, 0.999]
//   - Eps: 1e-8
func NewAdamW(params []*nn.Parameter, config AdamWConfig) (*AdamW, error) {
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
		config.Eps = 1e-8
	}
	if err := validateCommon(config.LR, config.Eps, config.WeightDecay); err != nil {
		return nil, err
	}
	if err := validateBetas(config.Betas); err != nil {
		return nil, err
	}

	n := len(params)
	return &AdamW{
		params:      params,
		lr:          config.LR,
		beta1:       config.Betas[0],
		beta2:       config.Betas[1],
		eps:         config.Eps,
		weightDecay: config.WeightDecay,
		decouple:    !config.CoupledWD,
		fixedDecay:  config.FixedDecay,
		amsGrad:     config.AMSGrad,
		m:           make([]*tensor.Tensor, n),
		v:           make([]*tensor.Tensor, n),
		vMax:        make([]*tensor.Tensor, n),
	}, nil
}

// Step performs a single optimization step.
func (a *AdamW) Step() error {
	a.t++

	// Corrected step size: lr * sqrt(1-beta2^t) / (1-beta1^t).
	stepSize := a.lr * float32(math.Sqrt(float64(debias(a.beta2, a.t)))) / debias(a.beta1, a.t)

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
		if a.amsGrad && a.vMax[i] == nil {
			a.vMax[i] = tensor.Zeros(param.Tensor().Shape())
		}

		paramData := param.Tensor().Data()
		gradData := grad.Clone().Data()
		mData := a.m[i].Data()
		vData := a.v[i].Data()

		applyWeightDecay(paramData, gradData, a.lr, a.weightDecay, a.decouple, a.fixedDecay)

		for j := range paramData {
			g := gradData[j]

			mData[j] = a.beta1*mData[j] + (1.0-a.beta1)*g
			vData[j] = a.beta2*vData[j] + (1.0-a.beta2)*g*g

			denom := vData[j]
			if a.amsGrad {
				vMaxData := a.vMax[i].Data()
				if vData[j] > vMaxData[j] {
					vMaxData[j] = vData[j]
				}
				denom = vMaxData[j]
			}

			paramData[j] -= stepSize * mData[j] / (float32(math.Sqrt(float64(denom))) + a.eps)
		}
	}
	return nil
}

// ZeroGrad clears gradients for all parameters.
func (a *AdamW) ZeroGrad() {
	zeroGrads(a.params)
}

// GetLR returns the current learning rate.
func (a *AdamW) GetLR() float32 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *AdamW) SetLR(lr float32) {
	a.lr = lr
}

// Parameters returns the optimized parameters.
func (a *AdamW) Parameters() []*nn.Parameter {
	return a.params
}

// GetTimestep returns the current timestep.
func (a *AdamW) GetTimestep() int {
	return a.t
}

// StateDict exports the moment buffers.
func (a *AdamW) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	buffersToStateDict(state, "exp_avg", a.m)
	buffersToStateDict(state, "exp_avg_sq", a.v)
	if a.amsGrad {
		buffersToStateDict(state, "max_exp_avg_sq", a.vMax)
	}
	stepToStateDict(state, a.t)
	return state
}

// LoadStateDict restores the moment buffers.
func (a *AdamW) LoadStateDict(state map[string]*tensor.Tensor) error {
	a.t = stepFromStateDict(state)
	a.m = make([]*tensor.Tensor, len(a.params))
	a.v = make([]*tensor.Tensor, len(a.params))
	a.vMax = make([]*tensor.Tensor, len(a.params))
	if err := buffersFromStateDict(state, "exp_avg", a.params, a.m); err != nil {
		return err
	}
	if err := buffersFromStateDict(state, "exp_avg_sq", a.params, a.v); err != nil {
		return err
	}
	return buffersFromStateDict(state, "max_exp_avg_sq", a.params, a.vMax)
}
