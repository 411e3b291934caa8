package optimizer

import (
	"math"

	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// RAdam implements Rectified Adam.
//
// RAdam tracks the length of the approximated simple moving average (SMA)
// of the adaptive learning rate. While the SMA length is below the
// threshold the variance of the adaptive rate is untrustworthy and the
// update falls back to plain momentum; beyond it, a rectification term
// scales the Adam step:
//
//	rho_inf = 2 / (1 - beta2) - 1
//	rho_t   = rho_inf - 2 * t * beta2^t / (1 - beta2^t)
//	rect    = sqrt((rho_t-4)(rho_t-2)rho_inf / ((rho_inf-4)(rho_inf-2)rho_t))
//
// Reference: "On the Variance of the Adaptive Learning Rate and Beyond"
// (Liu et al., 2020)
type RAdam struct {
	params       []*nn.Parameter
	lr           float32
	beta1        float32
	beta2        float32
	eps          float32
	weightDecay  float32
	decouple     bool
	fixedDecay   bool
	smaThreshold float32
	t            int
	m            []*tensor.Tensor
	v            []*tensor.Tensor
}

// RAdamConfig holds configuration for the RAdam optimizer.
type RAdamConfig struct {
	LR           float32    // Learning rate (default: 0.001)
	Betas        [2]float32 // Running average coefficients (default: [0.9, 0.999])
	Eps          float32    // Term for numerical stability (default: 1e-8)
	WeightDecay  float32    // Weight decay coefficient (default: 0.0)
	CoupledWD    bool       // Fold decay into the gradient
	FixedDecay   bool       // Decay without lr scaling
	SMAThreshold float32    // SMA length below which updates are unrectified (default: 5)
}

// NewRAdam creates a new RAdam optimizer.
func NewRAdam(params []*nn.Parameter, config RAdamConfig) (*RAdam, error) {
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
	return &RAdam{
		params:       params,
		lr:           config.LR,
		beta1:        config.Betas[0],
		beta2:        config.Betas[1],
		eps:          config.Eps,
		weightDecay:  config.WeightDecay,
		decouple:     !config.CoupledWD,
		fixedDecay:   config.FixedDecay,
		smaThreshold: config.SMAThreshold,
		m:            make([]*tensor.Tensor, n),
		v:            make([]*tensor.Tensor, n),
	}, nil
}

// rectification returns the variance rectification term for the given
// timestep, and whether the SMA length clears the threshold.
func rectification(beta2 float32, step int, threshold float32) (float32, bool) {
	b2t := math.Pow(float64(beta2), float64(step))
	rhoInf := 2.0/(1.0-float64(beta2)) - 1.0
	rhoT := rhoInf - 2.0*float64(step)*b2t/(1.0-b2t)

	if rhoT <= float64(threshold) {
		return 0, false
	}
	rect := math.Sqrt(
		(rhoT - 4) * (rhoT - 2) * rhoInf /
			((rhoInf - 4) * (rhoInf - 2) * rhoT))
	return float32(rect), true
}

// Step performs a single optimization step.
func (r *RAdam) Step() error {
	r.t++

	bc1 := debias(r.beta1, r.t)
	bc2 := debias(r.beta2, r.t)
	rect, rectified := rectification(r.beta2, r.t, r.smaThreshold)

	for i, param := range r.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}

		if r.m[i] == nil {
			r.m[i] = tensor.Zeros(param.Tensor().Shape())
		}
		if r.v[i] == nil {
			r.v[i] = tensor.Zeros(param.Tensor().Shape())
		}

		paramData := param.Tensor().Data()
		gradData := grad.Clone().Data()
		mData := r.m[i].Data()
		vData := r.v[i].Data()

		applyWeightDecay(paramData, gradData, r.lr, r.weightDecay, r.decouple, r.fixedDecay)

		for j := range paramData {
			g := gradData[j]
			mData[j] = r.beta1*mData[j] + (1.0-r.beta1)*g
			vData[j] = r.beta2*vData[j] + (1.0-r.beta2)*g*g

			mHat := mData[j] / bc1
			if rectified {
				vHat := float32(math.Sqrt(float64(vData[j] / bc2)))
				paramData[j] -= r.lr * rect * mHat / (vHat + r.eps)
			} else {
				paramData[j] -= r.lr * mHat
			}
		}
	}
	return nil
}

// ZeroGrad clears gradients for all parameters.
func (r *RAdam) ZeroGrad() {
	zeroGrads(r.params)
}

// GetLR returns the current learning rate.
func (r *RAdam) GetLR() float32 {
	return r.lr
}

// SetLR updates the learning rate.
func (r *RAdam) SetLR(lr float32) {
	r.lr = lr
}

// Parameters returns the optimized parameters.
func (r *RAdam) Parameters() []*nn.Parameter {
	return r.params
}

// StateDict exports the moment buffers.
func (r *RAdam) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	buffersToStateDict(state, "exp_avg", r.m)
	buffersToStateDict(state, "exp_avg_sq", r.v)
	stepToStateDict(state, r.t)
	return state
}

// LoadStateDict restores the moment buffers.
func (r *RAdam) LoadStateDict(state map[string]*tensor.Tensor) error {
	r.t = stepFromStateDict(state)
	r.m = make([]*tensor.Tensor, len(r.params))
	r.v = make([]*tensor.Tensor, len(r.params))
	if err := buffersFromStateDict(state, "exp_avg", r.params, r.m); err != nil {
		return err
	}
	return buffersFromStateDict(state, "exp_avg_sq", r.params, r.v)
}
