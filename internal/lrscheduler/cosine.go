package lrscheduler

import (
	"fmt"
	"math"
)

// CosineAnnealingLR anneals the learning rate from its initial value down
// to EtaMin along a cosine curve over TMax ticks, then back up, repeating.
//
//	lr_t = eta_min + (base_lr - eta_min) * (1 + cos(pi * t / t_max)) / 2
type CosineAnnealingLR struct {
	opt    Optimizer
	baseLR float32
	tMax   int
	etaMin float32
	t      int
}

// CosineAnnealingLRConfig holds configuration for CosineAnnealingLR.
type CosineAnnealingLRConfig struct {
	TMax   int     // Half period in ticks (required, must be >= 1)
	EtaMin float32 // Lower bound on the rate (default: 0)
}

// NewCosineAnnealingLR creates a cosine annealing schedule.
func NewCosineAnnealingLR(opt Optimizer, config CosineAnnealingLRConfig) (*CosineAnnealingLR, error) {
	if err := validatePositiveInt("t_max", config.TMax); err != nil {
		return nil, err
	}
	if err := validateNonNegative("eta_min", config.EtaMin); err != nil {
		return nil, err
	}
	return &CosineAnnealingLR{
		opt:    opt,
		baseLR: opt.GetLR(),
		tMax:   config.TMax,
		etaMin: config.EtaMin,
	}, nil
}

// Step advances one tick and applies the annealed rate.
func (c *CosineAnnealingLR) Step() float32 {
	c.t++
	phase := math.Pi * float64(c.t) / float64(c.tMax)
	lr := c.etaMin + (c.baseLR-c.etaMin)*float32(1+math.Cos(phase))/2
	c.opt.SetLR(lr)
	return lr
}

// GetLR returns the rate most recently applied.
func (c *CosineAnnealingLR) GetLR() float32 {
	return c.opt.GetLR()
}

// CosineAnnealingWarmupRestarts runs repeated cosine annealing cycles,
// each starting with a linear warmup from MinLR to the cycle's peak. The
// cycle length grows by CycleMult after each restart and the peak decays
// by Gamma.
type CosineAnnealingWarmupRestarts struct {
	opt Optimizer

	firstCycleSteps int
	cycleMult       float32
	baseMaxLR       float32
	maxLR           float32
	minLR           float32
	warmupSteps     int
	gamma           float32

	cycle         int
	curCycleSteps int
	stepInCycle   int
	lastLR        float32
}

// CosineAnnealingWarmupRestartsConfig holds configuration for the
// warm-restart schedule.
type CosineAnnealingWarmupRestartsConfig struct {
	FirstCycleSteps int     // Length of the first cycle (required, must be >= 1)
	CycleMult       float32 // Cycle length growth factor (default: 1.0)
	MaxLR           float32 // Peak rate of the first cycle (default: 1e-4)
	MinLR           float32 // Floor rate and warmup start (default: 1e-6)
	WarmupSteps     int     // Linear warmup ticks per cycle (default: 0, must be < FirstCycleSteps)
	Gamma           float32 // Peak decay per cycle (default: 0.9)
}

// NewCosineAnnealingWarmupRestarts creates a warm-restart cosine schedule.
func NewCosineAnnealingWarmupRestarts(opt Optimizer, config CosineAnnealingWarmupRestartsConfig) (*CosineAnnealingWarmupRestarts, error) {
	if config.CycleMult == 0 {
		config.CycleMult = 1.0
	}
	if config.MaxLR == 0 {
		config.MaxLR = 1e-4
	}
	if config.MinLR == 0 {
		config.MinLR = 1e-6
	}
	if config.Gamma == 0 {
		config.Gamma = 0.9
	}
	if err := validatePositiveInt("first cycle steps", config.FirstCycleSteps); err != nil {
		return nil, err
	}
	if config.WarmupSteps < 0 || config.WarmupSteps >= config.FirstCycleSteps {
		return nil, fmt.Errorf("%w: warmup steps %d must be in [0, %d)",
			ErrInvalidHyperparameter, config.WarmupSteps, config.FirstCycleSteps)
	}
	if err := validatePositive("cycle mult", config.CycleMult); err != nil {
		return nil, err
	}
	if err := validatePositive("max lr", config.MaxLR); err != nil {
		return nil, err
	}

	s := &CosineAnnealingWarmupRestarts{
		opt:             opt,
		firstCycleSteps: config.FirstCycleSteps,
		cycleMult:       config.CycleMult,
		baseMaxLR:       config.MaxLR,
		maxLR:           config.MaxLR,
		minLR:           config.MinLR,
		warmupSteps:     config.WarmupSteps,
		gamma:           config.Gamma,
		curCycleSteps:   config.FirstCycleSteps,
		lastLR:          config.MinLR,
	}
	opt.SetLR(s.lastLR)
	return s, nil
}

// Step advances one tick, handling cycle restarts.
func (c *CosineAnnealingWarmupRestarts) Step() float32 {
	c.stepInCycle++
	if c.stepInCycle >= c.curCycleSteps {
		c.cycle++
		c.stepInCycle = 0
		c.curCycleSteps = int(float32(c.curCycleSteps-c.warmupSteps)*c.cycleMult) + c.warmupSteps
		c.maxLR = c.baseMaxLR * powf(c.gamma, c.cycle)
	}

	var lr float32
	if c.stepInCycle < c.warmupSteps {
		lr = c.minLR + (c.maxLR-c.minLR)*float32(c.stepInCycle)/float32(c.warmupSteps)
	} else {
		phase := math.Pi * float64(c.stepInCycle-c.warmupSteps) / float64(c.curCycleSteps-c.warmupSteps)
		lr = c.minLR + (c.maxLR-c.minLR)*float32(1+math.Cos(phase))/2
	}

	c.lastLR = lr
	c.opt.SetLR(lr)
	return lr
}

// GetLR returns the rate most recently applied.
func (c *CosineAnnealingWarmupRestarts) GetLR() float32 {
	return c.lastLR
}

func powf(base float32, exp int) float32 {
	return float32(math.Pow(float64(base), float64(exp)))
}
