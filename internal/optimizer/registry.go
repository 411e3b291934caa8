package optimizer

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
)

// Config is the flat hyperparameter set used to build any registered
// optimizer by name. Fields an optimizer does not use are ignored, zero
// values fall back to the optimizer's defaults.
type Config struct {
	LR          float32    `yaml:"lr"`
	Betas       [2]float32 `yaml:"betas,flow"`
	Eps         float32    `yaml:"eps"`
	WeightDecay float32    `yaml:"weight_decay"`

	Momentum  float32 `yaml:"momentum"`
	Dampening float32 `yaml:"dampening"`
	Nesterov  bool    `yaml:"nesterov"`

	AMSGrad    bool `yaml:"amsgrad"`
	Rectify    bool `yaml:"rectify"`
	CoupledWD  bool `yaml:"coupled_weight_decay"`
	FixedDecay bool `yaml:"fixed_decay"`

	FinalLR float32 `yaml:"final_lr"`
	Gamma   float32 `yaml:"gamma"`

	Nus                [2]float32 `yaml:"nus,flow"`
	Beta3              float32    `yaml:"beta3"`
	TrustCoefficient   float32    `yaml:"trust_coefficient"`
	ClampValue         float32    `yaml:"clamp_value"`
	GradAveraging      bool       `yaml:"grad_averaging"`
	InitialAccumulator float32    `yaml:"initial_accumulator"`

	GraftType                string `yaml:"graft_type"`
	BlockSize                int    `yaml:"block_size"`
	StartPreconditioningStep int    `yaml:"start_preconditioning_step"`

	LookaheadK        int     `yaml:"lookahead_k"`
	LookaheadAlpha    float32 `yaml:"lookahead_alpha"`
	LookaheadPullback string  `yaml:"lookahead_pullback"`
}

// graftTypeByName maps config names onto Shampoo graft types.
var graftTypeByName = map[string]GraftType{
	"none":    GraftNone,
	"sgd":     GraftSGD,
	"adagrad": GraftAdagrad,
	"rmsprop": GraftRMSProp,
	"sqrtn":   GraftSQRTN,
}

// LoadConfig reads a Config from a YAML file.
func LoadConfig(path string) (Config, error) {
	var config Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return config, fmt.Errorf("parse config: %w", err)
	}
	return config, nil
}

// Factory builds an optimizer from the generic config.
type Factory func(params []*nn.Parameter, config Config) (Optimizer, error)

var registry = map[string]Factory{
	"adabelief": func(params []*nn.Parameter, c Config) (Optimizer, error) {
		return NewAdaBelief(params, AdaBeliefConfig{
			LR: c.LR, Betas: c.Betas, Eps: c.Eps, WeightDecay: c.WeightDecay,
			CoupledWD: c.CoupledWD, FixedDecay: c.FixedDecay,
			Rectify: c.Rectify, AMSGrad: c.AMSGrad,
		})
	},
	"adabound": func(params []*nn.Parameter, c Config) (Optimizer, error) {
		return NewAdaBound(params, AdaBoundConfig{
			LR: c.LR, FinalLR: c.FinalLR, Gamma: c.Gamma, Betas: c.Betas,
			Eps: c.Eps, WeightDecay: c.WeightDecay,
			CoupledWD: c.CoupledWD, FixedDecay: c.FixedDecay, AMSBound: c.AMSGrad,
		})
	},
	"adamod": func(params []*nn.Parameter, c Config) (Optimizer, error) {
		return NewAdaMod(params, AdaModConfig{
			LR: c.LR, Betas: c.Betas, Beta3: c.Beta3, Eps: c.Eps,
			WeightDecay: c.WeightDecay,
		})
	},
	"adamw": func(params []*nn.Parameter, c Config) (Optimizer, error) {
		return NewAdamW(params, AdamWConfig{
			LR: c.LR, Betas: c.Betas, Eps: c.Eps, WeightDecay: c.WeightDecay,
			CoupledWD: c.CoupledWD, FixedDecay: c.FixedDecay, AMSGrad: c.AMSGrad,
		})
	},
	"diffgrad": func(params []*nn.Parameter, c Config) (Optimizer, error) {
		return NewDiffGrad(params, DiffGradConfig{
			LR: c.LR, Betas: c.Betas, Eps: c.Eps, WeightDecay: c.WeightDecay,
		})
	},
	"lamb": func(params []*nn.Parameter, c Config) (Optimizer, error) {
		return NewLamb(params, LambConfig{
			LR: c.LR, Betas: c.Betas, Eps: c.Eps, WeightDecay: c.WeightDecay,
			ClampValue: c.ClampValue,
		})
	},
	"lars": func(params []*nn.Parameter, c Config) (Optimizer, error) {
		return NewLARS(params, LARSConfig{
			LR: c.LR, Momentum: c.Momentum, WeightDecay: c.WeightDecay,
			TrustCoefficient: c.TrustCoefficient, Eps: c.Eps, Nesterov: c.Nesterov,
		})
	},
	"lion": func(params []*nn.Parameter, c Config) (Optimizer, error) {
		return NewLion(params, LionConfig{
			LR: c.LR, Betas: c.Betas, WeightDecay: c.WeightDecay,
			FixedDecay: c.FixedDecay,
		})
	},
	"madgrad": func(params []*nn.Parameter, c Config) (Optimizer, error) {
		return NewMADGRAD(params, MADGRADConfig{
			LR: c.LR, Momentum: c.Momentum, WeightDecay: c.WeightDecay, Eps: c.Eps,
		})
	},
	"novograd": func(params []*nn.Parameter, c Config) (Optimizer, error) {
		return NewNovoGrad(params, NovoGradConfig{
			LR: c.LR, Betas: c.Betas, Eps: c.Eps, WeightDecay: c.WeightDecay,
			GradAveraging: c.GradAveraging,
		})
	},
	"qhadam": func(params []*nn.Parameter, c Config) (Optimizer, error) {
		return NewQHAdam(params, QHAdamConfig{
			LR: c.LR, Betas: c.Betas, Nus: c.Nus, Eps: c.Eps,
			WeightDecay: c.WeightDecay,
			CoupledWD:   c.CoupledWD, FixedDecay: c.FixedDecay,
		})
	},
	"radam": func(params []*nn.Parameter, c Config) (Optimizer, error) {
		return NewRAdam(params, RAdamConfig{
			LR: c.LR, Betas: c.Betas, Eps: c.Eps, WeightDecay: c.WeightDecay,
			CoupledWD: c.CoupledWD, FixedDecay: c.FixedDecay,
		})
	},
	"sgd": func(params []*nn.Parameter, c Config) (Optimizer, error) {
		return NewSGD(params, SGDConfig{
			LR: c.LR, Momentum: c.Momentum, Dampening: c.Dampening,
			WeightDecay: c.WeightDecay, Nesterov: c.Nesterov,
		})
	},
	"sgdw": func(params []*nn.Parameter, c Config) (Optimizer, error) {
		return NewSGD(params, SGDConfig{
			LR: c.LR, Momentum: c.Momentum, Dampening: c.Dampening,
			WeightDecay: c.WeightDecay, WeightDecouple: true,
			FixedDecay: c.FixedDecay, Nesterov: c.Nesterov,
		})
	},
	"shampoo": func(params []*nn.Parameter, c Config) (Optimizer, error) {
		graft := GraftSGD
		if c.GraftType != "" {
			g, ok := graftTypeByName[strings.ToLower(c.GraftType)]
			if !ok {
				return nil, fmt.Errorf("%w: unknown graft type %q", ErrInvalidHyperparameter, c.GraftType)
			}
			graft = g
		}
		return NewShampoo(params, ShampooConfig{
			LR: c.LR, Betas: c.Betas, WeightDecay: c.WeightDecay,
			GraftType: graft, BlockSize: c.BlockSize,
			StartPreconditioningStep: c.StartPreconditioningStep,
		})
	},
	"signsgd": func(params []*nn.Parameter, c Config) (Optimizer, error) {
		return NewSignSGD(params, SignSGDConfig{
			LR: c.LR, Beta: c.Momentum, WeightDecay: c.WeightDecay,
			FixedDecay: c.FixedDecay,
		})
	},
	"tiger": func(params []*nn.Parameter, c Config) (Optimizer, error) {
		return NewTiger(params, TigerConfig{
			LR: c.LR, Beta: c.Momentum, WeightDecay: c.WeightDecay,
		})
	},
	"yogi": func(params []*nn.Parameter, c Config) (Optimizer, error) {
		return NewYogi(params, YogiConfig{
			LR: c.LR, Betas: c.Betas, Eps: c.Eps, WeightDecay: c.WeightDecay,
			CoupledWD: c.CoupledWD, FixedDecay: c.FixedDecay,
			InitialAccumulator: c.InitialAccumulator,
		})
	},
}

// LoadOptimizer looks up a factory by name. Lookup is case-insensitive.
func LoadOptimizer(name string) (Factory, error) {
	factory, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOptimizer, name)
	}
	return factory, nil
}

// CreateOptimizer builds a named optimizer, optionally wrapped with
// Lookahead.
func CreateOptimizer(params []*nn.Parameter, name string, config Config, useLookahead bool) (Optimizer, error) {
	factory, err := LoadOptimizer(name)
	if err != nil {
		return nil, err
	}
	opt, err := factory(params, config)
	if err != nil {
		return nil, err
	}
	if !useLookahead {
		return opt, nil
	}

	return NewLookahead(opt, LookaheadConfig{
		K:                config.LookaheadK,
		Alpha:            config.LookaheadAlpha,
		PullbackMomentum: config.LookaheadPullback,
	})
}

// Supported returns the registered optimizer names in sorted order.
func Supported() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
