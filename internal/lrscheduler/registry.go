package lrscheduler

import (
	"fmt"
	"sort"
	"strings"
)

// Config is the flat setting set used to build any registered scheduler
// by name. Fields a scheduler does not use are ignored.
type Config struct {
	TotalSteps  int     `yaml:"total_steps"`
	WarmupSteps int     `yaml:"warmup_steps"`
	MaxLR       float32 `yaml:"max_lr"`
	MinLR       float32 `yaml:"min_lr"`
	InitLR      float32 `yaml:"init_lr"`

	StepSize   int     `yaml:"step_size"`
	Gamma      float32 `yaml:"gamma"`
	Milestones []int   `yaml:"milestones,flow"`

	TMax   int     `yaml:"t_max"`
	EtaMin float32 `yaml:"eta_min"`

	FirstCycleSteps int     `yaml:"first_cycle_steps"`
	CycleMult       float32 `yaml:"cycle_mult"`

	PolyOrder float32 `yaml:"poly_order"`
}

// Factory builds a scheduler around an optimizer from the generic config.
type Factory func(opt Optimizer, config Config) (Scheduler, error)

var registry = map[string]Factory{
	"constant": func(opt Optimizer, _ Config) (Scheduler, error) {
		return NewConstantLR(opt), nil
	},
	"step": func(opt Optimizer, c Config) (Scheduler, error) {
		return NewStepLR(opt, StepLRConfig{StepSize: c.StepSize, Gamma: c.Gamma})
	},
	"multi_step": func(opt Optimizer, c Config) (Scheduler, error) {
		return NewMultiStepLR(opt, MultiStepLRConfig{Milestones: c.Milestones, Gamma: c.Gamma})
	},
	"cosine_annealing": func(opt Optimizer, c Config) (Scheduler, error) {
		return NewCosineAnnealingLR(opt, CosineAnnealingLRConfig{TMax: c.TMax, EtaMin: c.EtaMin})
	},
	"cosine_annealing_with_warmup": func(opt Optimizer, c Config) (Scheduler, error) {
		return NewCosineAnnealingWarmupRestarts(opt, CosineAnnealingWarmupRestartsConfig{
			FirstCycleSteps: c.FirstCycleSteps,
			CycleMult:       c.CycleMult,
			MaxLR:           c.MaxLR,
			MinLR:           c.MinLR,
			WarmupSteps:     c.WarmupSteps,
			Gamma:           c.Gamma,
		})
	},
	"linear": func(opt Optimizer, c Config) (Scheduler, error) {
		return NewLinearScheduler(opt, warmupConfig(c))
	},
	"cosine": func(opt Optimizer, c Config) (Scheduler, error) {
		return NewCosineScheduler(opt, warmupConfig(c))
	},
	"poly": func(opt Optimizer, c Config) (Scheduler, error) {
		return NewPolyScheduler(opt, PolySchedulerConfig{
			WarmupConfig: warmupConfig(c),
			PolyOrder:    c.PolyOrder,
		})
	},
}

func warmupConfig(c Config) WarmupConfig {
	return WarmupConfig{
		TotalSteps:  c.TotalSteps,
		MaxLR:       c.MaxLR,
		MinLR:       c.MinLR,
		InitLR:      c.InitLR,
		WarmupSteps: c.WarmupSteps,
	}
}

// LoadScheduler looks up a factory by name. Lookup is case-insensitive.
func LoadScheduler(name string) (Factory, error) {
	factory, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheduler, name)
	}
	return factory, nil
}

// CreateScheduler builds a named scheduler around the optimizer.
func CreateScheduler(opt Optimizer, name string, config Config) (Scheduler, error) {
	factory, err := LoadScheduler(name)
	if err != nil {
		return nil, err
	}
	return factory(opt, config)
}

// Supported returns the registered scheduler names in sorted order.
func Supported() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
