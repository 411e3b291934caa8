package optimizer

import (
	"math"

	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// DiffGrad scales the Adam step by a friction coefficient derived from
// how much the gradient changed since the previous step:
//
//	dfc   = 1 / (1 + exp(-|g_{t-1} - g_t|))
//	param = param - lr * dfc * m̂_t / (sqrt(v̂_t) + eps)
//
// When gradients change slowly (flat region or near an optimum) dfc
// approaches 0.5 and locks the step down; rapidly changing gradients keep
// dfc near 1 and the full adaptive step.
//
// Reference: "diffGrad: An Optimization Method for Convolutional Neural
// Networks" (Dubey et al., 2019)
type DiffGrad struct {
	params      []*nn.Parameter
	lr          float32
	beta1       float32
	beta2       float32
	eps         float32
	weightDecay float32
	t           int
	m           []*tensor.Tensor
	v           []*tensor.Tensor
	prevGrad    []*tensor.Tensor
}

// DiffGradConfig holds configuration for the DiffGrad optimizer.
type DiffGradConfig struct {
	LR          float32    // Learning rate (default: 0.001)
	Betas       [2]float32 // Running average coefficients (default: [0.9, 0.999])
	Eps         float32    // Term for numerical stability (default: 1e-8)
	WeightDecay float32    // Weight decay coefficient, folded into the gradient (default: 0.0)
}

// NewDiffGrad creates a new DiffGrad optimizer.
func NewDiffGrad(params []*nn.Parameter, config DiffGradConfig) (*DiffGrad, error) {
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
	return &DiffGrad{
		params:      params,
		lr:          config.LR,
		beta1:       config.Betas[0],
		beta2:       config.Betas[1],
		eps:         config.Eps,
		weightDecay: config.WeightDecay,
		m:           make([]*tensor.Tensor, n),
		v:           make([]*tensor.Tensor, n),
		prevGrad:    make([]*tensor.Tensor, n),
	}, nil
}

// Step performs a single optimization step.
func (d *DiffGrad) Step() error {
	d.t++

	bc1 := debias(d.beta1, d.t)
	bc2 := debias(d.beta2, d.t)

	for i, param := range d.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}

		if d.m[i] == nil {
			d.m[i] = tensor.Zeros(param.Tensor().Shape())
		}
		if d.v[i] == nil {
			d.v[i] = tensor.Zeros(param.Tensor().Shape())
		}
		if d.prevGrad[i] == nil {
			d.prevGrad[i] = tensor.Zeros(param.Tensor().Shape())
		}

		paramData := param.Tensor().Data()
		gradData := grad.Clone().Data()
		mData := d.m[i].Data()
		vData := d.v[i].Data()
		prevData := d.prevGrad[i].Data()

		applyWeightDecay(paramData, gradData, d.lr, d.weightDecay, false, false)

		for j := range paramData {
			g := gradData[j]
			mData[j] = d.beta1*mData[j] + (1.0-d.beta1)*g
			vData[j] = d.beta2*vData[j] + (1.0-d.beta2)*g*g

			diff := prevData[j] - g
			if diff < 0 {
				diff = -diff
			}
			dfc := float32(1.0 / (1.0 + math.Exp(-float64(diff))))
			prevData[j] = g

			mHat := mData[j] / bc1
			vHat := vData[j] / bc2
			paramData[j] -= d.lr * dfc * mHat / (float32(math.Sqrt(float64(vHat))) + d.eps)
		}
	}
	return nil
}

// ZeroGrad clears gradients for all parameters.
func (d *DiffGrad) ZeroGrad() {
	zeroGrads(d.params)
}

// GetLR returns the current learning rate.
func (d *DiffGrad) GetLR() float32 {
	return d.lr
}

// SetLR updates the learning rate.
func (d *DiffGrad) SetLR(lr float32) {
	d.lr = lr
}

// Parameters returns the optimized parameters.
func (d *DiffGrad) Parameters() []*nn.Parameter {
	return d.params
}

// StateDict exports the moment and previous-gradient buffers.
func (d *DiffGrad) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	buffersToStateDict(state, "exp_avg", d.m)
	buffersToStateDict(state, "exp_avg_sq", d.v)
	buffersToStateDict(state, "previous_grad", d.prevGrad)
	stepToStateDict(state, d.t)
	return state
}

// LoadStateDict restores the moment and previous-gradient buffers.
func (d *DiffGrad) LoadStateDict(state map[string]*tensor.Tensor) error {
	d.t = stepFromStateDict(state)
	d.m = make([]*tensor.Tensor, len(d.params))
	d.v = make([]*tensor.Tensor, len(d.params))
	d.prevGrad = make([]*tensor.Tensor, len(d.params))
	if err := buffersFromStateDict(state, "exp_avg", d.params, d.m); err != nil {
		return err
	}
	if err := buffersFromStateDict(state, "exp_avg_sq", d.params, d.v); err != nil {
		return err
	}
	return buffersFromStateDict(state, "previous_grad", d.params, d.prevGrad)
}
