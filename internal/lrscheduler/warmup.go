package lrscheduler

import (
	"fmt"
	"math"
)

// WarmupConfig holds the shared settings of the linear warmup schedules.
// The rate climbs linearly from InitLR to MaxLR over WarmupSteps ticks,
// then decays toward MinLR over the remaining ticks according to the
// concrete schedule.
type WarmupConfig struct {
	TotalSteps  int     // Full schedule length in ticks (required, must be > WarmupSteps)
	MaxLR       float32 // Peak rate reached after warmup (required)
	MinLR       float32 // Final rate (default: 0)
	InitLR      float32 // Starting rate (default: 0)
	WarmupSteps int     // Linear warmup ticks (default: 0)
}

func (c WarmupConfig) validate() error {
	if err := validatePositiveInt("total steps", c.TotalSteps); err != nil {
		return err
	}
	if err := validatePositive("max lr", c.MaxLR); err != nil {
		return err
	}
	if err := validateNonNegative("min lr", c.MinLR); err != nil {
		return err
	}
	if err := validateNonNegative("init lr", c.InitLR); err != nil {
		return err
	}
	if c.WarmupSteps < 0 || c.WarmupSteps >= c.TotalSteps {
		return fmt.Errorf("%w: warmup steps %d must be in [0, %d)",
			ErrInvalidHyperparameter, c.WarmupSteps, c.TotalSteps)
	}
	return nil
}

// warmupBase drives the warmup phase and delegates the decay phase.
type warmupBase struct {
	opt    Optimizer
	config WarmupConfig
	decay  func(t int) float32
	t      int
	lastLR float32
}

func newWarmupBase(opt Optimizer, config WarmupConfig, decay func(t int) float32) (*warmupBase, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &warmupBase{opt: opt, config: config, decay: decay, lastLR: config.InitLR}, nil
}

// Step advances one tick through warmup and decay.
func (w *warmupBase) Step() float32 {
	var lr float32
	switch {
	case w.t < w.config.WarmupSteps:
		lr = w.config.InitLR + (w.config.MaxLR-w.config.InitLR)*float32(w.t)/float32(w.config.WarmupSteps)
	case w.t == w.config.WarmupSteps:
		lr = w.config.MaxLR
	default:
		lr = w.decay(w.t)
	}
	w.t++
	w.lastLR = lr
	w.opt.SetLR(lr)
	return lr
}

// GetLR returns the rate most recently applied.
func (w *warmupBase) GetLR() float32 {
	return w.lastLR
}

// LinearScheduler decays the rate linearly from MaxLR to MinLR after the
// warmup.
type LinearScheduler struct {
	*warmupBase
}

// NewLinearScheduler creates a warmup-then-linear-decay schedule.
func NewLinearScheduler(opt Optimizer, config WarmupConfig) (*LinearScheduler, error) {
	s := &LinearScheduler{}
	base, err := newWarmupBase(opt, config, func(t int) float32 {
		progress := float32(t-config.WarmupSteps) / float32(config.TotalSteps-config.WarmupSteps)
		return config.MaxLR + (config.MinLR-config.MaxLR)*progress
	})
	if err != nil {
		return nil, err
	}
	s.warmupBase = base
	return s, nil
}

// CosineScheduler decays the rate along a half cosine from MaxLR to MinLR
// after the warmup.
type CosineScheduler struct {
	*warmupBase
}

// NewCosineScheduler creates a warmup-then-cosine-decay schedule.
func NewCosineScheduler(opt Optimizer, config WarmupConfig) (*CosineScheduler, error) {
	s := &CosineScheduler{}
	base, err := newWarmupBase(opt, config, func(t int) float32 {
		phase := math.Pi * float64(t-config.WarmupSteps) / float64(config.TotalSteps-config.WarmupSteps)
		return config.MinLR + (config.MaxLR-config.MinLR)*float32(1+math.Cos(phase))/2
	})
	if err != nil {
		return nil, err
	}
	s.warmupBase = base
	return s, nil
}

// PolyScheduler decays the rate polynomially after the warmup.
//
//	lr_t = min_lr + (max_lr - min_lr) * (t - warmup)^order
type PolyScheduler struct {
	*warmupBase
}

// PolySchedulerConfig extends the warmup settings with the polynomial
// order.
type PolySchedulerConfig struct {
	WarmupConfig
	PolyOrder float32 // Polynomial order (default: 0.5, must be > 0)
}

// NewPolyScheduler creates a warmup-then-polynomial schedule.
func NewPolyScheduler(opt Optimizer, config PolySchedulerConfig) (*PolyScheduler, error) {
	if config.PolyOrder == 0 {
		config.PolyOrder = 0.5
	}
	if err := validatePositive("poly order", config.PolyOrder); err != nil {
		return nil, err
	}

	s := &PolyScheduler{}
	base, err := newWarmupBase(opt, config.WarmupConfig, func(t int) float32 {
		steps := float64(t - config.WarmupSteps)
		return config.MinLR + (config.MaxLR-config.MinLR)*float32(math.Pow(steps, float64(config.PolyOrder)))
	})
	if err != nil {
		return nil, err
	}
	s.warmupBase = base
	return s, nil
}
