package lrscheduler

import (
	"fmt"
	"sort"
)

// ConstantLR holds the learning rate fixed. Useful as a neutral default
// where a schedule is required.
type ConstantLR struct {
	opt Optimizer
	lr  float32
}

// NewConstantLR pins the optimizer to its current learning rate.
func NewConstantLR(opt Optimizer) *ConstantLR {
	return &ConstantLR{opt: opt, lr: opt.GetLR()}
}

// Step reapplies the fixed rate.
func (c *ConstantLR) Step() float32 {
	c.opt.SetLR(c.lr)
	return c.lr
}

// GetLR returns the fixed rate.
func (c *ConstantLR) GetLR() float32 {
	return c.lr
}

// StepLR decays the learning rate by gamma every stepSize ticks.
type StepLR struct {
	opt      Optimizer
	baseLR   float32
	stepSize int
	gamma    float32
	t        int
}

// StepLRConfig holds configuration for StepLR.
type StepLRConfig struct {
	StepSize int     // Ticks between decays (required, must be >= 1)
	Gamma    float32 // Multiplicative decay factor (default: 0.1)
}

// NewStepLR creates a step decay schedule on the optimizer's current rate.
func NewStepLR(opt Optimizer, config StepLRConfig) (*StepLR, error) {
	if config.Gamma == 0 {
		config.Gamma = 0.1
	}
	if err := validatePositiveInt("step size", config.StepSize); err != nil {
		return nil, err
	}
	if err := validatePositive("gamma", config.Gamma); err != nil {
		return nil, err
	}
	return &StepLR{
		opt:      opt,
		baseLR:   opt.GetLR(),
		stepSize: config.StepSize,
		gamma:    config.Gamma,
	}, nil
}

// Step advances one tick and applies the decayed rate.
func (s *StepLR) Step() float32 {
	s.t++
	lr := s.baseLR
	for i := s.stepSize; i <= s.t; i += s.stepSize {
		lr *= s.gamma
	}
	s.opt.SetLR(lr)
	return lr
}

// GetLR returns the rate most recently applied.
func (s *StepLR) GetLR() float32 {
	return s.opt.GetLR()
}

// MultiStepLR decays the learning rate by gamma at each listed milestone.
type MultiStepLR struct {
	opt        Optimizer
	baseLR     float32
	milestones []int
	gamma      float32
	t          int
}

// MultiStepLRConfig holds configuration for MultiStepLR.
type MultiStepLRConfig struct {
	Milestones []int   // Ticks at which to decay (required, strictly increasing)
	Gamma      float32 // Multiplicative decay factor (default: 0.1)
}

// NewMultiStepLR creates a milestone decay schedule.
func NewMultiStepLR(opt Optimizer, config MultiStepLRConfig) (*MultiStepLR, error) {
	if config.Gamma == 0 {
		config.Gamma = 0.1
	}
	if len(config.Milestones) == 0 {
		return nil, fmt.Errorf("%w: milestones must not be empty", ErrInvalidHyperparameter)
	}
	if !sort.IntsAreSorted(config.Milestones) {
		return nil, fmt.Errorf("%w: milestones %v must be increasing", ErrInvalidHyperparameter, config.Milestones)
	}
	for _, m := range config.Milestones {
		if m < 1 {
			return nil, fmt.Errorf("%w: milestone %d must be >= 1", ErrInvalidHyperparameter, m)
		}
	}
	if err := validatePositive("gamma", config.Gamma); err != nil {
		return nil, err
	}
	return &MultiStepLR{
		opt:        opt,
		baseLR:     opt.GetLR(),
		milestones: config.Milestones,
		gamma:      config.Gamma,
	}, nil
}

// Step advances one tick and applies the decayed rate.
func (m *MultiStepLR) Step() float32 {
	m.t++
	lr := m.baseLR
	for _, milestone := range m.milestones {
		if m.t >= milestone {
			lr *= m.gamma
		}
	}
	m.opt.SetLR(lr)
	return lr
}

// GetLR returns the rate most recently applied.
func (m *MultiStepLR) GetLR() float32 {
	return m.opt.GetLR()
}
