package optimizer

import (
	"math"

	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// AdaBound clips the per-element Adam step size between bounds that
// converge towards a final SGD learning rate, so training starts adaptive
// and smoothly becomes SGD-like:
//
//	lower_t = final_lr * (1 - 1/(gamma*t + 1))
//	upper_t = final_lr * (1 + 1/(gamma*t))
//	eta     = clamp(step_size / (sqrt(v_t) + eps), lower_t, upper_t)
//	param   = param - eta * m_t
//
// Reference: "Adaptive Gradient Methods with Dynamic Bound of Learning
// Rate" (Luo et al., 2019)
type AdaBound struct {
	params      []*nn.Parameter
	lr          float32
	baseLR      float32
	finalLR     float32
	gamma       float32
	beta1       float32
	beta2       float32
	eps         float32
	weightDecay float32
	decouple    bool
	fixedDecay  bool
	amsBound    bool
	t           int
	m           []*tensor.Tensor
	v           []*tensor.Tensor
	vMax        []*tensor.Tensor
}

// AdaBoundConfig holds configuration for the AdaBound optimizer.
type AdaBoundConfig struct {
	LR          float32    // Learning rate (default: 0.001)
	FinalLR     float32    // Final (SGD) learning rate (default: 0.1)
	Gamma       float32    // Convergence speed of the bound functions (default: 1e-3)
	Betas       [2]float32 // Running average coefficients (default: [0.9, 0.999])
	Eps         float32    // Term for numerical stability (default: 1e-8)
	WeightDecay float32    // Weight decay coefficient (default: 0.0)
	CoupledWD   bool       // Fold decay into the gradient
	FixedDecay  bool       // Decay without lr scaling
	AMSBound    bool       // Use the max of past second moments
}

// NewAdaBound creates a new AdaBound optimizer.
func NewAdaBound(params []*nn.Parameter, config AdaBoundConfig) (*AdaBound, error) {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.FinalLR == 0 {
		config.FinalLR = 0.1
	}
	if config.Gamma == 0 {
		config.Gamma = 1e-3
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
	if err := validatePositive("gamma", config.Gamma); err != nil {
		return nil, err
	}

	n := len(params)
	return &AdaBound{
		params:      params,
		lr:          config.LR,
		baseLR:      config.LR,
		finalLR:     config.FinalLR,
		gamma:       config.Gamma,
		beta1:       config.Betas[0],
		beta2:       config.Betas[1],
		eps:         config.Eps,
		weightDecay: config.WeightDecay,
		decouple:    !config.CoupledWD,
		fixedDecay:  config.FixedDecay,
		amsBound:    config.AMSBound,
		m:           make([]*tensor.Tensor, n),
		v:           make([]*tensor.Tensor, n),
		vMax:        make([]*tensor.Tensor, n),
	}, nil
}

// Step performs a single optimization step.
func (a *AdaBound) Step() error {
	a.t++

	stepSize := a.lr * float32(math.Sqrt(float64(debias(a.beta2, a.t)))) / debias(a.beta1, a.t)

	// The final lr follows any scheduling applied to the base lr.
	finalLR := a.finalLR * a.lr / a.baseLR
	tf := float32(a.t)
	lowerBound := finalLR * (1.0 - 1.0/(a.gamma*tf+1.0))
	upperBound := finalLR * (1.0 + 1.0/(a.gamma*tf))

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
		if a.amsBound && a.vMax[i] == nil {
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

			denomSq := vData[j]
			if a.amsBound {
				vMaxData := a.vMax[i].Data()
				if vData[j] > vMaxData[j] {
					vMaxData[j] = vData[j]
				}
				denomSq = vMaxData[j]
			}

			eta := stepSize / (float32(math.Sqrt(float64(denomSq))) + a.eps)
			if eta < lowerBound {
				eta = lowerBound
			}
			if eta > upperBound {
				eta = upperBound
			}
			paramData[j] -= eta * mData[j]
		}
	}
	return nil
}

// ZeroGrad clears gradients for all parameters.
func (a *AdaBound) ZeroGrad() {
	zeroGrads(a.params)
}

// GetLR returns the current learning rate.
func (a *AdaBound) GetLR() float32 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *AdaBound) SetLR(lr float32) {
	a.lr = lr
}

// Parameters returns the optimized parameters.
func (a *AdaBound) Parameters() []*nn.Parameter {
	return a.params
}

// StateDict exports the moment buffers.
func (a *AdaBound) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	buffersToStateDict(state, "exp_avg", a.m)
	buffersToStateDict(state, "exp_avg_sq", a.v)
	if a.amsBound {
		buffersToStateDict(state, "max_exp_avg_sq", a.vMax)
	}
	stepToStateDict(state, a.t)
	return state
}

// LoadStateDict restores the moment buffers.
func (a *AdaBound) LoadStateDict(state map[string]*tensor.Tensor) error {
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
