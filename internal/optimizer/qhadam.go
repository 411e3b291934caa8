package optimizer

import (
	"math"

	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// QHAdam is quasi-hyperbolic Adam: each moment is replaced by a weighted
// average of the raw gradient and its bias-corrected moving average,
// interpolating between SGD and Adam with the immediate-discount factors
// nu1 and nu2:
//
//	numerator   = (1-nu1) * g  + nu1 * m̂_t
//	denominator = sqrt((1-nu2) * g² + nu2 * v̂_t) + eps
//	param = param - lr * numerator / denominator
//
// Nu1 = Nu2 = 1 recovers Adam; Nu1 = Nu2 = 0 recovers (normalized) SGD.
//
// Reference: "Quasi-hyperbolic momentum and Adam for deep learning"
// (Ma & Yarats, 2019)
type QHAdam struct {
	params      []*nn.Parameter
	lr          float32
	beta1       float32
	beta2       float32
	nu1         float32
	nu2         float32
	eps         float32
	weightDecay float32
	decouple    bool
	fixedDecay  bool
	t           int
	m           []*tensor.Tensor
	v           []*tensor.Tensor
}

// QHAdamConfig holds configuration for the QHAdam optimizer.
type QHAdamConfig struct {
	LR          float32    // Learning rate (default: 0.001)
	Betas       [2]float32 // Running average coefficients (default: [0.9, 0.999])
	Nus         [2]float32 // Immediate discount factors (default: [1.0, 1.0])
	Eps         float32    // Term for numerical stability (default: 1e-8)
	WeightDecay float32    // Weight decay coefficient (default: 0.0)
	CoupledWD   bool       // Fold decay into the gradient
	FixedDecay  bool       // Decay without lr scaling
}

// NewQHAdam creates a new QHAdam optimizer.
func NewQHAdam(params []*nn.Parameter, config QHAdamConfig) (*QHAdam, error) {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Nus == [2]float32{} {
		config.Nus = [2]float32{1.0, 1.0}
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
	if err := validateRange("nu1", config.Nus[0], 0, 1); err != nil {
		return nil, err
	}
	if err := validateRange("nu2", config.Nus[1], 0, 1); err != nil {
		return nil, err
	}

	n := len(params)
	return &QHAdam{
		params:      params,
		lr:          config.LR,
		beta1:       config.Betas[0],
		beta2:       config.Betas[1],
		nu1:         config.Nus[0],
		nu2:         config.Nus[1],
		eps:         config.Eps,
		weightDecay: config.WeightDecay,
		decouple:    !config.CoupledWD,
		fixedDecay:  config.FixedDecay,
		m:           make([]*tensor.Tensor, n),
		v:           make([]*tensor.Tensor, n),
	}, nil
}

// Step performs a single optimization step.
func (q *QHAdam) Step() error {
	q.t++

	bc1 := debias(q.beta1, q.t)
	bc2 := debias(q.beta2, q.t)

	for i, param := range q.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}

		if q.m[i] == nil {
			q.m[i] = tensor.Zeros(param.Tensor().Shape())
		}
		if q.v[i] == nil {
			q.v[i] = tensor.Zeros(param.Tensor().Shape())
		}

		paramData := param.Tensor().Data()
		gradData := grad.Clone().Data()
		mData := q.m[i].Data()
		vData := q.v[i].Data()

		applyWeightDecay(paramData, gradData, q.lr, q.weightDecay, q.decouple, q.fixedDecay)

		for j := range paramData {
			g := gradData[j]
			gSq := g * g

			mData[j] = q.beta1*mData[j] + (1.0-q.beta1)*g
			vData[j] = q.beta2*vData[j] + (1.0-q.beta2)*gSq

			mHat := mData[j] / bc1
			vHat := vData[j] / bc2

			numerator := (1.0-q.nu1)*g + q.nu1*mHat
			variance := (1.0-q.nu2)*gSq + q.nu2*vHat
			paramData[j] -= q.lr * numerator / (float32(math.Sqrt(float64(variance))) + q.eps)
		}
	}
	return nil
}

// ZeroGrad clears gradients for all parameters.
func (q *QHAdam) ZeroGrad() {
	zeroGrads(q.params)
}

// GetLR returns the current learning rate.
func (q *QHAdam) GetLR() float32 {
	return q.lr
}

// SetLR updates the learning rate.
func (q *QHAdam) SetLR(lr float32) {
	q.lr = lr
}

// Parameters returns the optimized parameters.
func (q *QHAdam) Parameters() []*nn.Parameter {
	return q.params
}

// StateDict exports the moment buffers.
func (q *QHAdam) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	buffersToStateDict(state, "exp_avg", q.m)
	buffersToStateDict(state, "exp_avg_sq", q.v)
	stepToStateDict(state, q.t)
	return state
}

// LoadStateDict restores the moment buffers.
func (q *QHAdam) LoadStateDict(state map[string]*tensor.Tensor) error {
	q.t = stepFromStateDict(state)
	q.m = make([]*tensor.Tensor, len(q.params))
	q.v = make([]*tensor.Tensor, len(q.params))
	if err := buffersFromStateDict(state, "exp_avg", q.params, q.m); err != nil {
		return err
	}
	return buffersFromStateDict(state, "exp_avg_sq", q.params, q.v)
}
