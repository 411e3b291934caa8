package optimizer

import (
	"fmt"
	"math/rand"

	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// PCGrad implements gradient surgery for multi-task learning. Each task's
// gradient is projected onto the normal plane of any other task gradient
// it conflicts with, then the surgered gradients are merged and handed to
// the base optimizer.
//
//	g_i = g_i - (g_i . g_j) / ||g_j||^2 * g_j    when g_i . g_j < 0
//
// Reference: "Gradient Surgery for Multi-Task Learning"
// (Yu et al., 2020)
type PCGrad struct {
	base      Optimizer
	reduction string
	rng       *rand.Rand
}

// PCGradConfig holds configuration for the PCGrad wrapper.
type PCGradConfig struct {
	Reduction string // Merge mode for surgered gradients, "mean" or "sum" (default: "mean")
	Seed      int64  // Seed for the projection order shuffle (default: 0)
}

// NewPCGrad wraps a base optimizer with gradient surgery.
func NewPCGrad(base Optimizer, config PCGradConfig) (*PCGrad, error) {
	if config.Reduction == "" {
		config.Reduction = "mean"
	}
	if config.Reduction != "mean" && config.Reduction != "sum" {
		return nil, fmt.Errorf("%w: invalid reduction %q", ErrInvalidHyperparameter, config.Reduction)
	}
	return &PCGrad{
		base:      base,
		reduction: config.Reduction,
		rng:       rand.New(rand.NewSource(config.Seed)),
	}, nil
}

// Backward computes per-task gradients via the given closures, projects
// away pairwise conflicts and stores the merged gradients on the
// parameters. Each closure must populate the parameter gradients for one
// task.
func (p *PCGrad) Backward(objectives []func() error) error {
	if len(objectives) == 0 {
		return fmt.Errorf("%w: pcgrad requires at least one objective", ErrInvalidHyperparameter)
	}

	params := p.base.Parameters()
	taskGrads := make([][]float32, len(objectives))
	taskHas := make([][]bool, len(objectives))

	for t, objective := range objectives {
		p.base.ZeroGrad()
		if err := objective(); err != nil {
			return err
		}
		taskGrads[t], taskHas[t] = flattenGrads(params)
	}

	shared, touched := gradMasks(taskHas)
	merged := p.projectConflicting(taskGrads, expandMask(params, shared))
	unflattenGrads(params, touched, merged)
	return nil
}

// Step applies the base optimizer using the gradients prepared by
// Backward.
func (p *PCGrad) Step() error {
	return p.base.Step()
}

// projectConflicting performs the surgery: each task gradient is visited
// against the others in random order and projected out of any conflicting
// direction. Positions every task touched are merged with the configured
// reduction; positions only some tasks touched are summed so no task's
// gradient is lost.
func (p *PCGrad) projectConflicting(taskGrads [][]float32, shared []bool) []float32 {
	n := len(taskGrads)
	surgered := make([][]float32, n)
	for i, g := range taskGrads {
		surgered[i] = append([]float32(nil), g...)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	for _, g := range surgered {
		p.rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, j := range order {
			other := taskGrads[j]
			dot := dotProduct(g, other)
			if dot >= 0 {
				continue
			}
			normSq := dotProduct(other, other)
			if normSq == 0 {
				continue
			}
			scale := dot / normSq
			for k := range g {
				g[k] -= scale * other[k]
			}
		}
	}

	merged := make([]float32, len(taskGrads[0]))
	for _, g := range surgered {
		for k := range merged {
			merged[k] += g[k]
		}
	}
	if p.reduction == "mean" {
		inv := 1.0 / float32(n)
		for k := range merged {
			if shared[k] {
				merged[k] *= inv
			}
		}
	}
	return merged
}

// gradMasks reduces per-task gradient presence to the parameters every
// task touched and the parameters at least one task touched.
func gradMasks(taskHas [][]bool) (shared, touched []bool) {
	n := len(taskHas[0])
	shared = make([]bool, n)
	touched = make([]bool, n)
	for i := range shared {
		shared[i] = true
	}
	for _, has := range taskHas {
		for i, h := range has {
			shared[i] = shared[i] && h
			touched[i] = touched[i] || h
		}
	}
	return shared, touched
}

// expandMask repeats a per-parameter mask across each parameter's
// elements so it lines up with the flattened gradient vector.
func expandMask(params []*nn.Parameter, mask []bool) []bool {
	total := 0
	for _, param := range params {
		total += param.Tensor().NumElements()
	}
	flat := make([]bool, 0, total)
	for i, param := range params {
		for j := 0; j < param.Tensor().NumElements(); j++ {
			flat = append(flat, mask[i])
		}
	}
	return flat
}

// flattenGrads concatenates parameter gradients into one vector, treating
// missing gradients as zeros.
func flattenGrads(params []*nn.Parameter) ([]float32, []bool) {
	total := 0
	hasGrad := make([]bool, len(params))
	for i, param := range params {
		total += param.Tensor().NumElements()
		hasGrad[i] = param.Grad() != nil
	}

	flat := make([]float32, 0, total)
	for _, param := range params {
		if grad := param.Grad(); grad != nil {
			flat = append(flat, grad.Data()...)
		} else {
			flat = append(flat, make([]float32, param.Tensor().NumElements())...)
		}
	}
	return flat, hasGrad
}

// unflattenGrads writes a flat gradient vector back onto every
// parameter at least one task produced a gradient for.
func unflattenGrads(params []*nn.Parameter, touched []bool, flat []float32) {
	offset := 0
	for i, param := range params {
		n := param.Tensor().NumElements()
		chunk := flat[offset : offset+n]
		offset += n
		if !touched[i] {
			continue
		}
		grad := tensor.Zeros(param.Tensor().Shape())
		copy(grad.Data(), chunk)
		param.SetGrad(grad)
	}
}

func dotProduct(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// ZeroGrad clears gradients for all parameters.
func (p *PCGrad) ZeroGrad() {
	p.base.ZeroGrad()
}

// GetLR returns the base optimizer's learning rate.
func (p *PCGrad) GetLR() float32 {
	return p.base.GetLR()
}

// SetLR updates the base optimizer's learning rate.
func (p *PCGrad) SetLR(lr float32) {
	p.base.SetLR(lr)
}

// Parameters returns the optimized parameters.
func (p *PCGrad) Parameters() []*nn.Parameter {
	return p.base.Parameters()
}

// StateDict exports the base optimizer's state.
func (p *PCGrad) StateDict() map[string]*tensor.Tensor {
	return p.base.StateDict()
}

// LoadStateDict restores the base optimizer's state.
func (p *PCGrad) LoadStateDict(state map[string]*tensor.Tensor) error {
	return p.base.LoadStateDict(state)
}
