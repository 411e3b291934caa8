package optimizer

import (
	"math"

	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// Lamb implements layerwise adaptive moments for large-batch training.
//
// The Adam update direction for each parameter (layer) is rescaled by the
// trust ratio ||param|| / ||update||, so every layer takes a step
// proportional to its own weight magnitude:
//
//	u = m̂_t / (sqrt(v̂_t) + eps) + weight_decay * param
//	trust = ||param|| / ||u||       (1 when either norm is zero)
//	param = param - lr * trust * u
//
// Reference: "Large Batch Optimization for Deep Learning: Training BERT in
// 76 minutes" (You et al., 2020)
type Lamb struct {
	params      []*nn.Parameter
	lr          float32
	beta1       float32
	beta2       float32
	eps         float32
	weightDecay float32
	clampValue  float32
	adamOnly    bool
	t           int
	m           []*tensor.Tensor
	v           []*tensor.Tensor
}

// LambConfig holds configuration for the Lamb optimizer.
type LambConfig struct {
	LR          float32    // Learning rate (default: 0.001)
	Betas       [2]float32 // Running average coefficients (default: [0.9, 0.999])
	Eps         float32    // Term for numerical stability (default: 1e-6)
	WeightDecay float32    // Weight decay coefficient (default: 0.0)
	ClampValue  float32    // Upper clamp on the weight norm (default: 10)
	AdamOnly    bool       // Skip the trust ratio (plain Adam step)
}

// NewLamb creates a new Lamb optimizer.
func NewLamb(params []*nn.Parameter, config LambConfig) (*Lamb, error) {
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
		config.Eps = 1e-6
	}
	if config.ClampValue == 0 {
		config.ClampValue = 10
	}
	if err := validateCommon(config.LR, config.Eps, config.WeightDecay); err != nil {
		return nil, err
	}
	if err := validateBetas(config.Betas); err != nil {
		return nil, err
	}
	if err := validatePositive("clamp value", config.ClampValue); err != nil {
		return nil, err
	}

	n := len(params)
	return &Lamb{
		params:      params,
		lr:          config.LR,
		beta1:       config.Betas[0],
		beta2:       config.Betas[1],
		eps:         config.Eps,
		weightDecay: config.WeightDecay,
		clampValue:  config.ClampValue,
		adamOnly:    config.AdamOnly,
		m:           make([]*tensor.Tensor, n),
		v:           make([]*tensor.Tensor, n),
	}, nil
}

// Step performs a single optimization step.
func (l *Lamb) Step() error {
	l.t++

	bc1 := debias(l.beta1, l.t)
	bc2 := debias(l.beta2, l.t)

	for i, param := range l.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}

		if l.m[i] == nil {
			l.m[i] = tensor.Zeros(param.Tensor().Shape())
		}
		if l.v[i] == nil {
			l.v[i] = tensor.Zeros(param.Tensor().Shape())
		}

		paramData := param.Tensor().Data()
		gradData := grad.Data()
		mData := l.m[i].Data()
		vData := l.v[i].Data()

		update := make([]float32, len(paramData))
		for j := range paramData {
			g := gradData[j]
			mData[j] = l.beta1*mData[j] + (1.0-l.beta1)*g
			vData[j] = l.beta2*vData[j] + (1.0-l.beta2)*g*g

			mHat := mData[j] / bc1
			vHat := vData[j] / bc2
			update[j] = mHat/(float32(math.Sqrt(float64(vHat)))+l.eps) + l.weightDecay*paramData[j]
		}

		trustRatio := float32(1.0)
		if !l.adamOnly {
			weightNorm := norm(paramData)
			if weightNorm > l.clampValue {
				weightNorm = l.clampValue
			}
			updateNorm := norm(update)
			if weightNorm != 0 && updateNorm != 0 {
				trustRatio = weightNorm / updateNorm
			}
		}

		for j := range paramData {
			paramData[j] -= l.lr * trustRatio * update[j]
		}
	}
	return nil
}

func norm(data []float32) float32 {
	var sum float64
	for _, v := range data {
		sum += float64(v) * float64(v)
	}
	return float32(math.Sqrt(sum))
}

// ZeroGrad clears gradients for all parameters.
func (l *Lamb) ZeroGrad() {
	zeroGrads(l.params)
}

// GetLR returns the current learning rate.
func (l *Lamb) GetLR() float32 {
	return l.lr
}

// SetLR updates the learning rate.
func (l *Lamb) SetLR(lr float32) {
	l.lr = lr
}

// Parameters returns the optimized parameters.
func (l *Lamb) Parameters() []*nn.Parameter {
	return l.params
}

// StateDict exports the moment buffers.
func (l *Lamb) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	buffersToStateDict(state, "exp_avg", l.m)
	buffersToStateDict(state, "exp_avg_sq", l.v)
	stepToStateDict(state, l.t)
	return state
}

// LoadStateDict restores the moment buffers.
func (l *Lamb) LoadStateDict(state map[string]*tensor.Tensor) error {
	l.t = stepFromStateDict(state)
	l.m = make([]*tensor.Tensor, len(l.params))
	l.v = make([]*tensor.Tensor, len(l.params))
	if err := buffersFromStateDict(state, "exp_avg", l.params, l.m); err != nil {
		return err
	}
	return buffersFromStateDict(state, "exp_avg_sq", l.params, l.v)
}
