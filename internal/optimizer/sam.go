package optimizer

import (
	"fmt"
	"math"

	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// SAM implements Sharpness-Aware Minimization. SAM seeks parameters in
// neighborhoods with uniformly low loss by taking an ascent step to the
// local worst case before the base optimizer's descent step.
//
//	e = rho * g / ||g||          (first step, climbs to w + e)
//	w = w + e; recompute grads
//	w = w - e; base.Step()       (second step, descends from w)
//
// Adaptive enables ASAM scaling, where the perturbation is weighted by
// |w| elementwise.
//
// Reference: "Sharpness-Aware Minimization for Efficiently Improving
// Generalization" (Foret et al., 2021)
type SAM struct {
	base      Optimizer
	rho       float32
	adaptive  bool
	ePerParam []*tensor.Tensor
}

// SAMConfig holds configuration for the SAM wrapper.
type SAMConfig struct {
	Rho      float32 // Neighborhood size (default: 0.05, must be >= 0)
	Adaptive bool    // Elementwise adaptive scaling, ASAM (default: false)
}

// NewSAM wraps a base optimizer with sharpness-aware minimization.
func NewSAM(base Optimizer, config SAMConfig) (*SAM, error) {
	if config.Rho == 0 {
		config.Rho = 0.05
	}
	if config.Rho < 0 {
		return nil, fmt.Errorf("%w: rho %g must be non-negative", ErrInvalidHyperparameter, config.Rho)
	}
	return &SAM{
		base:      base,
		rho:       config.Rho,
		adaptive:  config.Adaptive,
		ePerParam: make([]*tensor.Tensor, len(base.Parameters())),
	}, nil
}

// FirstStep perturbs the parameters toward the local loss maximum. The
// caller must recompute gradients at the perturbed point before calling
// SecondStep.
func (s *SAM) FirstStep() error {
	gradNorm := s.gradNorm()
	scale := s.rho / (gradNorm + 1e-12)

	for i, p := range s.base.Parameters() {
		grad := p.Grad()
		if grad == nil {
			continue
		}
		if s.ePerParam[i] == nil {
			s.ePerParam[i] = tensor.Zeros(p.Tensor().Shape())
		}
		paramData := p.Tensor().Data()
		gradData := grad.Data()
		eData := s.ePerParam[i].Data()
		for j := range paramData {
			e := scale * gradData[j]
			if s.adaptive {
				e *= absf(paramData[j])
			}
			eData[j] = e
			paramData[j] += e
		}
	}
	return nil
}

// SecondStep restores the original parameters and applies the base
// optimizer's update using the gradients computed at the perturbed point.
func (s *SAM) SecondStep() error {
	for i, p := range s.base.Parameters() {
		if s.ePerParam[i] == nil {
			continue
		}
		paramData := p.Tensor().Data()
		eData := s.ePerParam[i].Data()
		for j := range paramData {
			paramData[j] -= eData[j]
			eData[j] = 0
		}
	}
	return s.base.Step()
}

// Step runs both SAM phases using closure to recompute gradients at the
// perturbed point.
func (s *SAM) Step(closure func() error) error {
	if closure == nil {
		return fmt.Errorf("%w: sam requires a closure to recompute gradients", ErrInvalidHyperparameter)
	}
	if err := s.FirstStep(); err != nil {
		return err
	}
	if err := closure(); err != nil {
		return err
	}
	return s.SecondStep()
}

// gradNorm computes the norm of all gradients combined, with adaptive
// elementwise scaling when ASAM is enabled.
func (s *SAM) gradNorm() float32 {
	var sum float64
	for _, p := range s.base.Parameters() {
		grad := p.Grad()
		if grad == nil {
			continue
		}
		gradData := grad.Data()
		paramData := p.Tensor().Data()
		for j, g := range gradData {
			v := float64(g)
			if s.adaptive {
				v *= math.Abs(float64(paramData[j]))
			}
			sum += v * v
		}
	}
	return float32(math.Sqrt(sum))
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// ZeroGrad clears gradients for all parameters.
func (s *SAM) ZeroGrad() {
	s.base.ZeroGrad()
}

// GetLR returns the base optimizer's learning rate.
func (s *SAM) GetLR() float32 {
	return s.base.GetLR()
}

// SetLR updates the base optimizer's learning rate.
func (s *SAM) SetLR(lr float32) {
	s.base.SetLR(lr)
}

// Parameters returns the optimized parameters.
func (s *SAM) Parameters() []*nn.Parameter {
	return s.base.Parameters()
}

// StateDict exports the base optimizer's state.
func (s *SAM) StateDict() map[string]*tensor.Tensor {
	return s.base.StateDict()
}

// LoadStateDict restores the base optimizer's state.
func (s *SAM) LoadStateDict(state map[string]*tensor.Tensor) error {
	return s.base.LoadStateDict(state)
}
