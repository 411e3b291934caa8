package optimizer

import (
	"fmt"
	"strconv"

	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// Shampoo implements scalable preconditioned gradient descent. Each
// parameter keeps one second-moment statistics matrix per dim, and the
// update preconditions the gradient with the inverse-pth roots of those
// matrices:
//
//	L_i = beta2 * L_i + (1 - beta2) * contraction of g with itself over dim i
//	s = g x_1 L_1^{-1/p} x_2 L_2^{-1/p} ...
//
// Large dims are cut into blocks so the roots stay cheap, and the step
// magnitude is grafted from a first-order method. Inverse roots are
// refreshed every PreconditioningComputeSteps via a coupled Newton
// iteration.
//
// Reference: "Scalable Second Order Optimization for Deep Learning"
// (Anil et al., 2021)
type Shampoo struct {
	params []*nn.Parameter

	lr          float32
	beta1       float32
	beta2       float32
	weightDecay float32

	decoupledWeightDecay     bool
	decoupledLearningRate    bool
	movingAverageForMomentum bool
	nesterov                 bool

	inverseExponentOverride     int
	startPreconditioningStep    int
	statisticsComputeSteps      int
	preconditioningComputeSteps int
	blockSize                   int
	shapeInterpretation         bool
	graftType                   GraftType
	preconditionerType          PreconditionerType
	diagonalEps                 float32
	matrixEps                   float32

	timestep        int
	momentum        []*tensor.Tensor
	grafts          []graft
	preconditioners []*preconditioner
}

// ShampooConfig holds Shampoo hyperparameters.
type ShampooConfig struct {
	LR          float32    // Learning rate (default: 1e-3)
	Betas       [2]float32 // Momentum and statistics decay (default: 0.9, 0.999)
	WeightDecay float32    // Weight decay coefficient (default: 0)

	DecoupledWeightDecay     bool // Decay weights directly instead of via the gradient (default: false)
	CoupledLearningRate      bool // Scale the grafting direction by lr before normalization (default: false)
	MovingAverageForMomentum bool // Weight nesterov correction by 1-beta1 (default: false)
	DisableNesterov          bool // Turn off nesterov momentum (default: false, nesterov on)

	InverseExponentOverride     int  // Fixed root exponent, 0 picks 2*rank (default: 0)
	StartPreconditioningStep    int  // First step that uses the preconditioned direction (default: 25)
	StatisticsComputeSteps      int  // Interval for statistics updates (default: 1)
	PreconditioningComputeSteps int  // Interval for inverse root refreshes (default: 1000)
	BlockSize                   int  // Maximal block dim for partitioning (default: 512)
	DisableShapeInterpretation  bool // Keep the original shape instead of merging small dims (default: false)

	GraftType          GraftType          // Step magnitude source (default: GraftSGD)
	PreconditionerType PreconditionerType // All dims or input dims only (default: PreconditionerAll)

	DiagonalEps float32 // Epsilon for the grafting statistics (default: 1e-10)
	MatrixEps   float32 // Ridge epsilon for the inverse roots (default: 1e-6)
}

// NewShampoo creates a Shampoo optimizer for the given parameters.
func NewShampoo(params []*nn.Parameter, config ShampooConfig) (*Shampoo, error) {
	if config.LR == 0 {
		config.LR = 1e-3
	}
	if config.Betas == [2]float32{} {
		config.Betas = [2]float32{0.9, 0.999}
	}
	if config.StartPreconditioningStep == 0 {
		config.StartPreconditioningStep = 25
	}
	if config.StatisticsComputeSteps == 0 {
		config.StatisticsComputeSteps = 1
	}
	if config.PreconditioningComputeSteps == 0 {
		config.PreconditioningComputeSteps = 1000
	}
	if config.BlockSize == 0 {
		config.BlockSize = 512
	}
	if config.DiagonalEps == 0 {
		config.DiagonalEps = 1e-10
	}
	if config.MatrixEps == 0 {
		config.MatrixEps = 1e-6
	}

	if err := validateLR(config.LR); err != nil {
		return nil, err
	}
	if err := validateBetas(config.Betas); err != nil {
		return nil, err
	}
	if err := validateWeightDecay(config.WeightDecay); err != nil {
		return nil, err
	}
	if config.StartPreconditioningStep < 1 {
		return nil, fmt.Errorf("%w: start preconditioning step %d must be >= 1", ErrInvalidHyperparameter, config.StartPreconditioningStep)
	}
	if config.StatisticsComputeSteps < 1 || config.PreconditioningComputeSteps < 1 {
		return nil, fmt.Errorf("%w: compute step intervals must be >= 1", ErrInvalidHyperparameter)
	}
	if config.BlockSize < 1 {
		return nil, fmt.Errorf("%w: block size %d must be >= 1", ErrInvalidHyperparameter, config.BlockSize)
	}

	s := &Shampoo{
		params:                      params,
		lr:                          config.LR,
		beta1:                       config.Betas[0],
		beta2:                       config.Betas[1],
		weightDecay:                 config.WeightDecay,
		decoupledWeightDecay:        config.DecoupledWeightDecay,
		decoupledLearningRate:       !config.CoupledLearningRate,
		movingAverageForMomentum:    config.MovingAverageForMomentum,
		nesterov:                    !config.DisableNesterov,
		inverseExponentOverride:     config.InverseExponentOverride,
		startPreconditioningStep:    config.StartPreconditioningStep,
		statisticsComputeSteps:      config.StatisticsComputeSteps,
		preconditioningComputeSteps: config.PreconditioningComputeSteps,
		blockSize:                   config.BlockSize,
		shapeInterpretation:         !config.DisableShapeInterpretation,
		graftType:                   config.GraftType,
		preconditionerType:          config.PreconditionerType,
		diagonalEps:                 config.DiagonalEps,
		matrixEps:                   config.MatrixEps,
		momentum:                    make([]*tensor.Tensor, len(params)),
		grafts:                      make([]graft, len(params)),
		preconditioners:             make([]*preconditioner, len(params)),
	}

	for i, p := range params {
		shape := p.Tensor().Shape()
		g, err := newGraft(shape, config.GraftType, config.DiagonalEps)
		if err != nil {
			return nil, err
		}
		s.grafts[i] = g
		s.momentum[i] = tensor.Zeros(shape)
		s.preconditioners[i] = newPreconditioner(
			shape,
			s.beta2,
			s.inverseExponentOverride,
			s.blockSize,
			s.shapeInterpretation,
			s.matrixEps,
			s.preconditionerType,
		)
	}
	return s, nil
}

// Step performs one optimization step.
func (s *Shampoo) Step() error {
	s.timestep++
	isPreconditionStep := s.timestep >= s.startPreconditioningStep

	for i, p := range s.params {
		grad := p.Grad()
		if grad == nil {
			continue
		}

		gr := s.grafts[i]
		pc := s.preconditioners[i]

		gr.AddStatistics(grad, s.beta2)
		if s.timestep%s.statisticsComputeSteps == 0 {
			if err := pc.addStatistics(grad); err != nil {
				return err
			}
		}
		if s.timestep%s.preconditioningComputeSteps == 0 {
			if err := pc.computePreconditioners(); err != nil {
				return err
			}
		}

		graftInput := grad
		if !s.decoupledLearningRate {
			graftInput = grad.MulScalar(s.lr)
		}
		graftGrad := gr.PreconditionGradient(graftInput)

		shampooGrad := grad
		if isPreconditionStep {
			var err error
			shampooGrad, err = pc.preconditionedGrad(grad)
			if err != nil {
				return err
			}
			graftNorm := graftGrad.Norm()
			shampooNorm := shampooGrad.Norm()
			shampooGrad = shampooGrad.MulScalar(graftNorm / (shampooNorm + 1e-16))
		}

		if s.weightDecay > 0 {
			if s.decoupledWeightDecay {
				p.Tensor().MulScalarInPlace(1.0 - s.lr*s.weightDecay)
			} else {
				if graftGrad == grad || graftGrad == graftInput {
					graftGrad = graftGrad.Clone()
				}
				if shampooGrad == grad {
					shampooGrad = shampooGrad.Clone()
				}
				graftGrad.AddInPlace(p.Tensor(), s.weightDecay)
				shampooGrad.AddInPlace(p.Tensor(), s.weightDecay)
			}
		}

		s.momentum[i].MulScalarInPlace(s.beta1)
		s.momentum[i].AddInPlace(shampooGrad, 1.0)
		graftMomentum := gr.UpdateMomentum(grad, s.beta1)

		momentumUpdate := s.momentum[i]
		if !isPreconditionStep {
			momentumUpdate = graftMomentum
		}

		if s.nesterov {
			w := float32(1.0)
			if s.movingAverageForMomentum {
				w = 1.0 - s.beta1
			}
			wdUpdate := graftGrad
			if isPreconditionStep {
				wdUpdate = shampooGrad
			}
			nesterovUpdate := momentumUpdate.MulScalar(s.beta1)
			nesterovUpdate.AddInPlace(wdUpdate, w)
			momentumUpdate = nesterovUpdate
		}

		p.Tensor().AddInPlace(momentumUpdate, -s.lr)
	}
	return nil
}

// ZeroGrad clears gradients for all parameters.
func (s *Shampoo) ZeroGrad() {
	zeroGrads(s.params)
}

// GetLR returns the current learning rate.
func (s *Shampoo) GetLR() float32 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *Shampoo) SetLR(lr float32) {
	s.lr = lr
}

// Parameters returns the optimized parameters.
func (s *Shampoo) Parameters() []*nn.Parameter {
	return s.params
}

// StateDict exports momentum buffers and the Kronecker-factored
// statistics. Factor keys are "statistics.<param>.<factor>".
func (s *Shampoo) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	buffersToStateDict(state, "momentum", s.momentum)
	for i, pc := range s.preconditioners {
		for j, stat := range pc.statistics {
			state["statistics."+strconv.Itoa(i)+"."+strconv.Itoa(j)] = stat.Clone()
		}
		for j, factor := range pc.preconditioners {
			state["preconditioners."+strconv.Itoa(i)+"."+strconv.Itoa(j)] = factor.Clone()
		}
	}
	stepToStateDict(state, s.timestep)
	return state
}

// LoadStateDict restores momentum buffers, factor matrices and the step
// counter. Missing entries keep their initial values.
func (s *Shampoo) LoadStateDict(state map[string]*tensor.Tensor) error {
	s.timestep = stepFromStateDict(state)
	if err := buffersFromStateDict(state, "momentum", s.params, s.momentum); err != nil {
		return err
	}
	for i, pc := range s.preconditioners {
		for j := range pc.statistics {
			if stat, ok := state["statistics."+strconv.Itoa(i)+"."+strconv.Itoa(j)]; ok {
				if !stat.Shape().Equal(pc.statistics[j].Shape()) {
					return fmt.Errorf("statistics shape mismatch for parameter %d factor %d", i, j)
				}
				pc.statistics[j] = stat.Clone()
			}
		}
		for j := range pc.preconditioners {
			if factor, ok := state["preconditioners."+strconv.Itoa(i)+"."+strconv.Itoa(j)]; ok {
				if !factor.Shape().Equal(pc.preconditioners[j].Shape()) {
					return fmt.Errorf("preconditioner shape mismatch for parameter %d factor %d", i, j)
				}
				pc.preconditioners[j] = factor.Clone()
			}
		}
	}
	return nil
}

// MomentumBuffers exposes the momentum state for pullback on
// synchronization.
func (s *Shampoo) MomentumBuffers() []*tensor.Tensor {
	return s.momentum
}
