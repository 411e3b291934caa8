package lrscheduler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vectorrent/pytorch-optimizer/internal/lrscheduler"
)

// fakeOptimizer records the rate a scheduler pushes into it.
type fakeOptimizer struct {
	lr float32
}

func (f *fakeOptimizer) GetLR() float32   { return f.lr }
func (f *fakeOptimizer) SetLR(lr float32) { f.lr = lr }

func collect(s lrscheduler.Scheduler, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = s.Step()
	}
	return out
}

func TestConstantLR(t *testing.T) {
	opt := &fakeOptimizer{lr: 0.5}
	s := lrscheduler.NewConstantLR(opt)

	for _, lr := range collect(s, 3) {
		assert.InDelta(t, 0.5, lr, 1e-6)
	}
	assert.InDelta(t, 0.5, opt.GetLR(), 1e-6)
}

func TestStepLR(t *testing.T) {
	opt := &fakeOptimizer{lr: 1.0}
	s, err := lrscheduler.NewStepLR(opt, lrscheduler.StepLRConfig{StepSize: 2, Gamma: 0.5})
	require.NoError(t, err)

	want := []float32{1.0, 0.5, 0.5, 0.25, 0.25}
	got := collect(s, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-6, "tick %d", i+1)
	}
}

func TestMultiStepLR(t *testing.T) {
	opt := &fakeOptimizer{lr: 1.0}
	s, err := lrscheduler.NewMultiStepLR(opt, lrscheduler.MultiStepLRConfig{
		Milestones: []int{2, 4},
		Gamma:      0.1,
	})
	require.NoError(t, err)

	want := []float32{1.0, 0.1, 0.1, 0.01, 0.01}
	got := collect(s, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-6, "tick %d", i+1)
	}
}

func TestMultiStepLR_RejectsUnsortedMilestones(t *testing.T) {
	opt := &fakeOptimizer{lr: 1.0}
	_, err := lrscheduler.NewMultiStepLR(opt, lrscheduler.MultiStepLRConfig{
		Milestones: []int{4, 2},
	})
	require.ErrorIs(t, err, lrscheduler.ErrInvalidHyperparameter)
}

func TestCosineAnnealingLR(t *testing.T) {
	opt := &fakeOptimizer{lr: 1.0}
	s, err := lrscheduler.NewCosineAnnealingLR(opt, lrscheduler.CosineAnnealingLRConfig{TMax: 4})
	require.NoError(t, err)

	// cos curve through t/t_max = 1/4, 2/4, 3/4, 1.
	want := []float32{0.853553, 0.5, 0.146447, 0.0}
	got := collect(s, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5, "tick %d", i+1)
	}
}

func TestLinearScheduler_WarmupAndDecay(t *testing.T) {
	opt := &fakeOptimizer{}
	s, err := lrscheduler.NewLinearScheduler(opt, lrscheduler.WarmupConfig{
		TotalSteps:  6,
		MaxLR:       1.0,
		MinLR:       0.0,
		InitLR:      0.0,
		WarmupSteps: 2,
	})
	require.NoError(t, err)

	// Warmup over 2 ticks, peak, then linear decay over the remaining 4.
	want := []float32{0.0, 0.5, 1.0, 0.75, 0.5, 0.25}
	got := collect(s, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5, "tick %d", i+1)
	}
}

func TestCosineScheduler_EndsAtMinLR(t *testing.T) {
	opt := &fakeOptimizer{}
	s, err := lrscheduler.NewCosineScheduler(opt, lrscheduler.WarmupConfig{
		TotalSteps:  10,
		MaxLR:       1.0,
		MinLR:       0.1,
		WarmupSteps: 2,
	})
	require.NoError(t, err)

	lrs := collect(s, 11)
	assert.InDelta(t, 1.0, lrs[2], 1e-5, "peak after warmup")
	assert.InDelta(t, 0.1, lrs[10], 1e-5, "floor at the end")
	assert.Greater(t, lrs[4], lrs[8], "monotone decay after the peak")
}

func TestPolyScheduler(t *testing.T) {
	opt := &fakeOptimizer{}
	s, err := lrscheduler.NewPolyScheduler(opt, lrscheduler.PolySchedulerConfig{
		WarmupConfig: lrscheduler.WarmupConfig{
			TotalSteps:  5,
			MaxLR:       1.0,
			WarmupSteps: 1,
		},
		PolyOrder: 0.5,
	})
	require.NoError(t, err)

	// After the peak the rate follows sqrt(t - warmup) scaled by max_lr.
	lrs := collect(s, 4)
	assert.InDelta(t, 0.0, lrs[0], 1e-6)
	assert.InDelta(t, 1.0, lrs[1], 1e-6)
	assert.InDelta(t, 1.0, lrs[2], 1e-5)
	assert.InDelta(t, 1.41421, lrs[3], 1e-4)
}

func TestCosineAnnealingWarmupRestarts_Cycles(t *testing.T) {
	opt := &fakeOptimizer{}
	s, err := lrscheduler.NewCosineAnnealingWarmupRestarts(opt, lrscheduler.CosineAnnealingWarmupRestartsConfig{
		FirstCycleSteps: 4,
		MaxLR:           1.0,
		MinLR:           0.0001,
		WarmupSteps:     1,
		Gamma:           0.5,
	})
	require.NoError(t, err)

	lrs := collect(s, 8)
	// Within the first cycle the rate decays from the peak.
	assert.Greater(t, lrs[1], lrs[2])
	// After the restart the peak is scaled by gamma.
	assert.Less(t, lrs[5], lrs[1])
	assert.InDelta(t, 0.5, lrs[5], 0.2, "second cycle peak near gamma * max_lr")
}

func TestCosineAnnealingWarmupRestarts_RejectsLongWarmup(t *testing.T) {
	opt := &fakeOptimizer{}
	_, err := lrscheduler.NewCosineAnnealingWarmupRestarts(opt, lrscheduler.CosineAnnealingWarmupRestartsConfig{
		FirstCycleSteps: 4,
		WarmupSteps:     4,
	})
	require.ErrorIs(t, err, lrscheduler.ErrInvalidHyperparameter)
}

func TestRegistry(t *testing.T) {
	names := lrscheduler.Supported()
	require.NotEmpty(t, names)
	assert.Contains(t, names, "cosine")
	assert.Contains(t, names, "multi_step")

	opt := &fakeOptimizer{lr: 1.0}
	s, err := lrscheduler.CreateScheduler(opt, "Step", lrscheduler.Config{StepSize: 1, Gamma: 0.5})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, s.Step(), 1e-6)

	_, err = lrscheduler.CreateScheduler(opt, "bogus", lrscheduler.Config{})
	require.ErrorIs(t, err, lrscheduler.ErrUnknownScheduler)
}
