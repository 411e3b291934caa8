package optimizer

import (
	"math"

	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// Yogi controls the growth of the effective learning rate with an
// additive, sign-based second-moment update in place of Adam's
// multiplicative one:
//
//	v_t = v_{t-1} - (1-beta2) * sign(v_{t-1} - g²) * g²
//
// The second moment can both grow and shrink at a bounded rate, which
// avoids Adam's rapid lr collapse under sparse, heavy-tailed gradients.
//
// Reference: "Adaptive Methods for Nonconvex Optimization"
// (Zaheer et al., 2018)
type Yogi struct {
	params       []*nn.Parameter
	lr           float32
	beta1        float32
	beta2        float32
	eps          float32
	weightDecay  float32
	decouple     bool
	fixedDecay   bool
	initAccValue float32
	t            int
	m            []*tensor.Tensor
	v            []*tensor.Tensor
}

// YogiConfig holds configuration for the Yogi optimizer.
type YogiConfig struct {
	LR                 float32    // Learning rate (default: 0.01)
	Betas              [2]float32 // Running average coefficients (default: [0.9, 0.999])
	Eps                float32    // Term for numerical stability (default: 1e-3)
	WeightDecay        float32    // Weight decay coefficient (default: 0.0)
	CoupledWD          bool       // Fold decay into the gradient
	FixedDecay         bool       // Decay without lr scaling
	InitialAccumulator float32    // Initial value of the second moment (default: 1e-6)
}

// NewYogi creates a new Yogi optimizer.
func NewYogi(params []*nn.Parameter, config YogiConfig) (*Yogi, error) {
	if config.LR == 0 {
		config.LR = 0.01
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-3
	}
	if config.InitialAccumulator == 0 {
		config.InitialAccumulator = 1e-6
	}
	if err := validateCommon(config.LR, config.Eps, config.WeightDecay); err != nil {
		return nil, err
	}
	if err := validateBetas(config.Betas); err != nil {
		return nil, err
	}
	if err := validatePositive("initial accumulator", config.InitialAccumulator); err != nil {
		return nil, err
	}

	n := len(params)
	return &Yogi{
		params:       params,
		lr:           config.LR,
		beta1:        config.Betas[0],
		beta2:        config.Betas[1],
		eps:          config.Eps,
		weightDecay:  config.WeightDecay,
		decouple:     !config.CoupledWD,
		fixedDecay:   config.FixedDecay,
		initAccValue: config.InitialAccumulator,
		m:            make([]*tensor.Tensor, n),
		v:            make([]*tensor.Tensor, n),
	}, nil
}

// Step performs a single optimization step.
func (y *Yogi) Step() error {
	y.t++

	bc1 := debias(y.beta1, y.t)
	bc2 := debias(y.beta2, y.t)

	for i, param := range y.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}

		if y.m[i] == nil {
			y.m[i] = tensor.Zeros(param.Tensor().Shape())
		}
		if y.v[i] == nil {
			y.v[i] = tensor.Full(param.Tensor().Shape(), y.initAccValue)
		}

		paramData := param.Tensor().Data()
		gradData := grad.Clone().Data()
		mData := y.m[i].Data()
		vData := y.v[i].Data()

		applyWeightDecay(paramData, gradData, y.lr, y.weightDecay, y.decouple, y.fixedDecay)

		for j := range paramData {
			g := gradData[j]
			gSq := g * g

			mData[j] = y.beta1*mData[j] + (1.0-y.beta1)*g

			signTerm := float32(0)
			switch {
			case vData[j] > gSq:
				signTerm = 1
			case vData[j] < gSq:
				signTerm = -1
			}
			vData[j] -= (1.0 - y.beta2) * signTerm * gSq

			mHat := mData[j] / bc1
			vHat := vData[j] / bc2
			paramData[j] -= y.lr * mHat / (float32(math.Sqrt(math.Abs(float64(vHat)))) + y.eps)
		}
	}
	return nil
}

// ZeroGrad clears gradients for all parameters.
func (y *Yogi) ZeroGrad() {
	zeroGrads(y.params)
}

// GetLR returns the current learning rate.
func (y *Yogi) GetLR() float32 {
	return y.lr
}

// SetLR updates the learning rate.
func (y *Yogi) SetLR(lr float32) {
	y.lr = lr
}

// Parameters returns the optimized parameters.
func (y *Yogi) Parameters() []*nn.Parameter {
	return y.params
}

// StateDict exports the moment buffers.
func (y *Yogi) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	buffersToStateDict(state, "exp_avg", y.m)
	buffersToStateDict(state, "exp_avg_sq", y.v)
	stepToStateDict(state, y.t)
	return state
}

// LoadStateDict restores the moment buffers.
func (y *Yogi) LoadStateDict(state map[string]*tensor.Tensor) error {
	y.t = stepFromStateDict(state)
	y.m = make([]*tensor.Tensor, len(y.params))
	y.v = make([]*tensor.Tensor, len(y.params))
	if err := buffersFromStateDict(state, "exp_avg", y.params, y.m); err != nil {
		return err
	}
	return buffersFromStateDict(state, "exp_avg_sq", y.params, y.v)
}
