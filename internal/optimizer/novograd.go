package optimizer

import (
	"math"
	"strconv"

	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// NovoGrad keeps a single scalar second moment per layer instead of a
// per-element one, normalizing each layer's gradient before momentum:
//
//	v_t = beta2 * v_{t-1} + (1-beta2) * ||g||²     (scalar, per layer)
//	d_t = g / (sqrt(v_t) + eps) + weight_decay * param
//	m_t = beta1 * m_{t-1} + d_t                    (or averaged variant)
//	param = param - lr * m_t
//
// Reference: "Stochastic Gradient Methods with Layer-wise Adaptive
// Moments for Training of Deep Networks" (Ginsburg et al., 2019)
type NovoGrad struct {
	params        []*nn.Parameter
	lr            float32
	beta1         float32
	beta2         float32
	eps           float32
	weightDecay   float32
	gradAveraging bool
	m             []*tensor.Tensor
	v             []float32 // Scalar second moment per parameter
	vInit         []bool
}

// NovoGradConfig holds configuration for the NovoGrad optimizer.
type NovoGradConfig struct {
	LR            float32    // Learning rate (default: 0.001)
	Betas         [2]float32 // Running average coefficients (default: [0.95, 0.98])
	Eps           float32    // Term for numerical stability (default: 1e-8)
	WeightDecay   float32    // Weight decay coefficient (default: 0.0)
	GradAveraging bool       // Scale the normalized gradient by (1-beta1)
}

// NewNovoGrad creates a new NovoGrad optimizer.
func NewNovoGrad(params []*nn.Parameter, config NovoGradConfig) (*NovoGrad, error) {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.95
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.98
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
	return &NovoGrad{
		params:        params,
		lr:            config.LR,
		beta1:         config.Betas[0],
		beta2:         config.Betas[1],
		eps:           config.Eps,
		weightDecay:   config.WeightDecay,
		gradAveraging: config.GradAveraging,
		m:             make([]*tensor.Tensor, n),
		v:             make([]float32, n),
		vInit:         make([]bool, n),
	}, nil
}

// Step performs a single optimization step.
func (n *NovoGrad) Step() error {
	for i, param := range n.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}

		paramData := param.Tensor().Data()
		gradData := grad.Data()

		gradNormSq := float32(0)
		for _, g := range gradData {
			gradNormSq += g * g
		}

		if !n.vInit[i] {
			n.v[i] = gradNormSq
			n.vInit[i] = true
		} else {
			n.v[i] = n.beta2*n.v[i] + (1.0-n.beta2)*gradNormSq
		}
		denom := float32(math.Sqrt(float64(n.v[i]))) + n.eps

		if n.m[i] == nil {
			n.m[i] = tensor.Zeros(param.Tensor().Shape())
		}
		mData := n.m[i].Data()

		scale := float32(1.0)
		if n.gradAveraging {
			scale = 1.0 - n.beta1
		}

		for j := range paramData {
			d := gradData[j]/denom + n.weightDecay*paramData[j]
			mData[j] = n.beta1*mData[j] + scale*d
			paramData[j] -= n.lr * mData[j]
		}
	}
	return nil
}

// ZeroGrad clears gradients for all parameters.
func (n *NovoGrad) ZeroGrad() {
	zeroGrads(n.params)
}

// GetLR returns the current learning rate.
func (n *NovoGrad) GetLR() float32 {
	return n.lr
}

// SetLR updates the learning rate.
func (n *NovoGrad) SetLR(lr float32) {
	n.lr = lr
}

// Parameters returns the optimized parameters.
func (n *NovoGrad) Parameters() []*nn.Parameter {
	return n.params
}

// StateDict exports the momentum buffers and the scalar second moments.
func (n *NovoGrad) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	buffersToStateDict(state, "exp_avg", n.m)
	for i, init := range n.vInit {
		if !init {
			continue
		}
		v, _ := tensor.FromSlice([]float32{n.v[i]}, tensor.Shape{1})
		state["exp_avg_sq."+strconv.Itoa(i)] = v
	}
	return state
}

// LoadStateDict restores the momentum buffers and scalar second moments.
func (n *NovoGrad) LoadStateDict(state map[string]*tensor.Tensor) error {
	n.m = make([]*tensor.Tensor, len(n.params))
	n.v = make([]float32, len(n.params))
	n.vInit = make([]bool, len(n.params))
	if err := buffersFromStateDict(state, "exp_avg", n.params, n.m); err != nil {
		return err
	}
	for i := range n.params {
		if v, ok := state["exp_avg_sq."+strconv.Itoa(i)]; ok {
			n.v[i] = v.Data()[0]
			n.vInit[i] = true
		}
	}
	return nil
}

