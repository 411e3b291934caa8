package optimizer_test

import (
	"errors"
	"testing"

	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/optimizer"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// Helper to check float equality with tolerance.
func floatEqual(a, b, eps float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < eps
}

// makeParam builds a named parameter from raw values.
func makeParam(t *testing.T, name string, values ...float32) *nn.Parameter {
	t.Helper()
	x, err := tensor.FromSlice(values, tensor.Shape{len(values)})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return nn.NewParameter(name, x)
}

// setGrad installs a gradient on a parameter.
func setGrad(t *testing.T, p *nn.Parameter, values ...float32) {
	t.Helper()
	g, err := tensor.FromSlice(values, p.Tensor().Shape())
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	p.SetGrad(g)
}

// TestSGD_SimpleUpdate tests SGD without momentum.
func TestSGD_SimpleUpdate(t *testing.T) {
	param := makeParam(t, "x", 2.0)

	opt, err := optimizer.NewSGD([]*nn.Parameter{param}, optimizer.SGDConfig{LR: 0.1})
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}

	setGrad(t, param, 1.0)
	if err := opt.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	// x_new = x_old - lr * grad = 2.0 - 0.1 * 1.0 = 1.9
	actual := param.Tensor().Data()[0]
	if !floatEqual(actual, 1.9, 1e-6) {
		t.Errorf("SGD update: got %f, want %f", actual, 1.9)
	}
}

// TestSGD_WithMomentum tests SGD with momentum over two steps.
func TestSGD_WithMomentum(t *testing.T) {
	param := makeParam(t, "x", 1.0)

	opt, err := optimizer.NewSGD([]*nn.Parameter{param}, optimizer.SGDConfig{LR: 0.1, Momentum: 0.9})
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}

	// First step:
	// v_1 = 0.9 * 0 + 1.0 = 1.0
	// x_1 = 1.0 - 0.1 * 1.0 = 0.9
	setGrad(t, param, 1.0)
	if err := opt.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if actual := param.Tensor().Data()[0]; !floatEqual(actual, 0.9, 1e-6) {
		t.Errorf("SGD momentum step 1: got %f, want %f", actual, 0.9)
	}

	// Second step:
	// v_2 = 0.9 * 1.0 + 1.0 = 1.9
	// x_2 = 0.9 - 0.1 * 1.9 = 0.71
	setGrad(t, param, 1.0)
	if err := opt.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if actual := param.Tensor().Data()[0]; !floatEqual(actual, 0.71, 1e-6) {
		t.Errorf("SGD momentum step 2: got %f, want %f", actual, 0.71)
	}
}

// TestSGD_WeightDecay tests coupled weight decay folding into the gradient.
func TestSGD_WeightDecay(t *testing.T) {
	param := makeParam(t, "x", 2.0)

	opt, err := optimizer.NewSGD([]*nn.Parameter{param}, optimizer.SGDConfig{LR: 0.1, WeightDecay: 0.5})
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}

	setGrad(t, param, 1.0)
	if err := opt.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	// g = 1.0 + 0.5 * 2.0 = 2.0
	// x = 2.0 - 0.1 * 2.0 = 1.8
	actual := param.Tensor().Data()[0]
	if !floatEqual(actual, 1.8, 1e-6) {
		t.Errorf("SGD weight decay: got %f, want %f", actual, 1.8)
	}
}

// TestAdamW_FirstStep verifies the bias-corrected first update.
func TestAdamW_FirstStep(t *testing.T) {
	param := makeParam(t, "x", 1.0)

	opt, err := optimizer.NewAdamW([]*nn.Parameter{param}, optimizer.AdamWConfig{
		LR:    0.1,
		Betas: [2]float32{0.9, 0.999},
		Eps:   1e-8,
	})
	if err != nil {
		t.Fatalf("NewAdamW: %v", err)
	}

	setGrad(t, param, 0.5)
	if err := opt.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	// m_1 = 0.1 * 0.5 = 0.05
	// v_1 = 0.001 * 0.25 = 0.00025
	// step_size = lr * sqrt(1 - beta2) / (1 - beta1) = 0.1 * sqrt(0.001) / 0.1
	// x_1 = 1.0 - step_size * m_1 / (sqrt(v_1) + eps) ~= 1.0 - 0.1
	actual := param.Tensor().Data()[0]
	if !floatEqual(actual, 0.9, 1e-4) {
		t.Errorf("AdamW first step: got %f, want %f", actual, 0.9)
	}
}

// TestAdamW_NilGradSkipped checks that parameters without gradients stay
// put.
func TestAdamW_NilGradSkipped(t *testing.T) {
	withGrad := makeParam(t, "a", 1.0)
	noGrad := makeParam(t, "b", 5.0)

	opt, err := optimizer.NewAdamW([]*nn.Parameter{withGrad, noGrad}, optimizer.AdamWConfig{})
	if err != nil {
		t.Fatalf("NewAdamW: %v", err)
	}

	setGrad(t, withGrad, 1.0)
	if err := opt.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if actual := noGrad.Tensor().Data()[0]; actual != 5.0 {
		t.Errorf("parameter without grad moved: got %f", actual)
	}
	if actual := withGrad.Tensor().Data()[0]; actual == 1.0 {
		t.Error("parameter with grad did not move")
	}
}

// TestValidation_RejectsBadHyperparameters walks every constructor through
// an invalid configuration and expects ErrInvalidHyperparameter.
func TestValidation_RejectsBadHyperparameters(t *testing.T) {
	params := []*nn.Parameter{makeParam(t, "x", 1.0)}

	cases := []struct {
		name  string
		build func() error
	}{
		{"sgd negative lr", func() error {
			_, err := optimizer.NewSGD(params, optimizer.SGDConfig{LR: -1})
			return err
		}},
		{"sgd momentum out of range", func() error {
			_, err := optimizer.NewSGD(params, optimizer.SGDConfig{Momentum: 1.5})
			return err
		}},
		{"adamw negative eps", func() error {
			_, err := optimizer.NewAdamW(params, optimizer.AdamWConfig{Eps: -1e-8})
			return err
		}},
		{"adamw beta out of range", func() error {
			_, err := optimizer.NewAdamW(params, optimizer.AdamWConfig{Betas: [2]float32{1.0, 0.999}})
			return err
		}},
		{"adabelief negative weight decay", func() error {
			_, err := optimizer.NewAdaBelief(params, optimizer.AdaBeliefConfig{WeightDecay: -0.1})
			return err
		}},
		{"adabound negative gamma", func() error {
			_, err := optimizer.NewAdaBound(params, optimizer.AdaBoundConfig{Gamma: -1e-3})
			return err
		}},
		{"lamb negative clamp", func() error {
			_, err := optimizer.NewLamb(params, optimizer.LambConfig{ClampValue: -1})
			return err
		}},
		{"lars negative trust", func() error {
			_, err := optimizer.NewLARS(params, optimizer.LARSConfig{TrustCoefficient: -0.01})
			return err
		}},
		{"lion beta out of range", func() error {
			_, err := optimizer.NewLion(params, optimizer.LionConfig{Betas: [2]float32{0.9, 1.2}})
			return err
		}},
		{"madgrad momentum out of range", func() error {
			_, err := optimizer.NewMADGRAD(params, optimizer.MADGRADConfig{Momentum: 1.5})
			return err
		}},
		{"qhadam nu out of range", func() error {
			_, err := optimizer.NewQHAdam(params, optimizer.QHAdamConfig{Nus: [2]float32{2.0, 1.0}})
			return err
		}},
		{"yogi negative initial accumulator", func() error {
			_, err := optimizer.NewYogi(params, optimizer.YogiConfig{InitialAccumulator: -1e-6})
			return err
		}},
		{"shampoo negative block size", func() error {
			_, err := optimizer.NewShampoo(params, optimizer.ShampooConfig{BlockSize: -1})
			return err
		}},
		{"lookahead bad pullback", func() error {
			inner, err := optimizer.NewSGD(params, optimizer.SGDConfig{})
			if err != nil {
				return err
			}
			_, err = optimizer.NewLookahead(inner, optimizer.LookaheadConfig{PullbackMomentum: "bogus"})
			return err
		}},
		{"sam negative rho", func() error {
			inner, err := optimizer.NewSGD(params, optimizer.SGDConfig{})
			if err != nil {
				return err
			}
			_, err = optimizer.NewSAM(inner, optimizer.SAMConfig{Rho: -0.1})
			return err
		}},
		{"pcgrad bad reduction", func() error {
			inner, err := optimizer.NewSGD(params, optimizer.SGDConfig{})
			if err != nil {
				return err
			}
			_, err = optimizer.NewPCGrad(inner, optimizer.PCGradConfig{Reduction: "max"})
			return err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.build()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !errors.Is(err, optimizer.ErrInvalidHyperparameter) {
				t.Errorf("expected ErrInvalidHyperparameter, got %v", err)
			}
		})
	}
}

// quadratic runs an optimizer on f(x) = (x - 3)^2 and returns the final x.
func quadratic(t *testing.T, opt optimizer.Optimizer, param *nn.Parameter, steps int) float32 {
	t.Helper()
	for i := 0; i < steps; i++ {
		x := param.Tensor().Data()[0]
		setGrad(t, param, 2*(x-3))
		if err := opt.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
		opt.ZeroGrad()
	}
	return param.Tensor().Data()[0]
}

// TestConvergence_Quadratic drives each optimizer toward the minimum of
// f(x) = (x - 3)^2 starting from x = 0.
func TestConvergence_Quadratic(t *testing.T) {
	cases := []struct {
		name      string
		build     func(params []*nn.Parameter) (optimizer.Optimizer, error)
		steps     int
		tolerance float32
	}{
		{"sgd", func(p []*nn.Parameter) (optimizer.Optimizer, error) {
			return optimizer.NewSGD(p, optimizer.SGDConfig{LR: 0.1})
		}, 200, 0.05},
		{"sgd momentum", func(p []*nn.Parameter) (optimizer.Optimizer, error) {
			return optimizer.NewSGD(p, optimizer.SGDConfig{LR: 0.05, Momentum: 0.9})
		}, 200, 0.05},
		{"adamw", func(p []*nn.Parameter) (optimizer.Optimizer, error) {
			return optimizer.NewAdamW(p, optimizer.AdamWConfig{LR: 0.1})
		}, 500, 0.05},
		{"adabelief", func(p []*nn.Parameter) (optimizer.Optimizer, error) {
			return optimizer.NewAdaBelief(p, optimizer.AdaBeliefConfig{LR: 0.1})
		}, 500, 0.05},
		{"adabound", func(p []*nn.Parameter) (optimizer.Optimizer, error) {
			return optimizer.NewAdaBound(p, optimizer.AdaBoundConfig{LR: 0.1})
		}, 500, 0.05},
		{"radam", func(p []*nn.Parameter) (optimizer.Optimizer, error) {
			return optimizer.NewRAdam(p, optimizer.RAdamConfig{LR: 0.1})
		}, 500, 0.05},
		{"lamb", func(p []*nn.Parameter) (optimizer.Optimizer, error) {
			return optimizer.NewLamb(p, optimizer.LambConfig{LR: 0.05})
		}, 500, 0.1},
		{"lion", func(p []*nn.Parameter) (optimizer.Optimizer, error) {
			return optimizer.NewLion(p, optimizer.LionConfig{LR: 0.01})
		}, 500, 0.05},
		{"diffgrad", func(p []*nn.Parameter) (optimizer.Optimizer, error) {
			return optimizer.NewDiffGrad(p, optimizer.DiffGradConfig{LR: 0.1})
		}, 500, 0.05},
		{"madgrad", func(p []*nn.Parameter) (optimizer.Optimizer, error) {
			return optimizer.NewMADGRAD(p, optimizer.MADGRADConfig{LR: 0.05})
		}, 500, 0.05},
		{"novograd", func(p []*nn.Parameter) (optimizer.Optimizer, error) {
			return optimizer.NewNovoGrad(p, optimizer.NovoGradConfig{LR: 0.05})
		}, 500, 0.1},
		{"yogi", func(p []*nn.Parameter) (optimizer.Optimizer, error) {
			return optimizer.NewYogi(p, optimizer.YogiConfig{LR: 0.1})
		}, 500, 0.05},
		{"qhadam", func(p []*nn.Parameter) (optimizer.Optimizer, error) {
			return optimizer.NewQHAdam(p, optimizer.QHAdamConfig{LR: 0.1})
		}, 500, 0.05},
		{"adamod", func(p []*nn.Parameter) (optimizer.Optimizer, error) {
			return optimizer.NewAdaMod(p, optimizer.AdaModConfig{LR: 0.1})
		}, 500, 0.05},
		{"signsgd", func(p []*nn.Parameter) (optimizer.Optimizer, error) {
			return optimizer.NewSignSGD(p, optimizer.SignSGDConfig{LR: 0.01})
		}, 500, 0.05},
		{"tiger", func(p []*nn.Parameter) (optimizer.Optimizer, error) {
			return optimizer.NewTiger(p, optimizer.TigerConfig{LR: 0.01, WeightDecay: 1e-6})
		}, 500, 0.05},
		{"shampoo", func(p []*nn.Parameter) (optimizer.Optimizer, error) {
			return optimizer.NewShampoo(p, optimizer.ShampooConfig{LR: 0.05})
		}, 500, 0.1},
		{"lookahead sgd", func(p []*nn.Parameter) (optimizer.Optimizer, error) {
			inner, err := optimizer.NewSGD(p, optimizer.SGDConfig{LR: 0.1, Momentum: 0.9})
			if err != nil {
				return nil, err
			}
			return optimizer.NewLookahead(inner, optimizer.LookaheadConfig{})
		}, 500, 0.05},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			param := makeParam(t, "x", 0.0)
			opt, err := tc.build([]*nn.Parameter{param})
			if err != nil {
				t.Fatalf("build: %v", err)
			}

			final := quadratic(t, opt, param, tc.steps)
			if !floatEqual(final, 3.0, tc.tolerance) {
				t.Errorf("did not converge: got %f, want 3.0 +- %f", final, tc.tolerance)
			}
		})
	}
}

// TestStateDict_RoundTrip saves optimizer state mid-run, restores it into
// a fresh optimizer and checks both continue identically.
func TestStateDict_RoundTrip(t *testing.T) {
	run := func(t *testing.T, restoreAt int) float32 {
		param := makeParam(t, "w", 0.0)
		opt, err := optimizer.NewAdamW([]*nn.Parameter{param}, optimizer.AdamWConfig{LR: 0.1})
		if err != nil {
			t.Fatalf("NewAdamW: %v", err)
		}

		for i := 0; i < 10; i++ {
			if i == restoreAt {
				state := opt.StateDict()

				clone := makeParam(t, "w", param.Tensor().Data()[0])
				restored, err := optimizer.NewAdamW([]*nn.Parameter{clone}, optimizer.AdamWConfig{LR: 0.1})
				if err != nil {
					t.Fatalf("NewAdamW: %v", err)
				}
				if err := restored.LoadStateDict(state); err != nil {
					t.Fatalf("LoadStateDict: %v", err)
				}
				param, opt = clone, restored
			}

			x := param.Tensor().Data()[0]
			setGrad(t, param, 2*(x-3))
			if err := opt.Step(); err != nil {
				t.Fatalf("Step: %v", err)
			}
		}
		return param.Tensor().Data()[0]
	}

	uninterrupted := run(t, -1)
	restored := run(t, 5)
	if !floatEqual(uninterrupted, restored, 1e-5) {
		t.Errorf("restored run diverged: %f vs %f", restored, uninterrupted)
	}
}

// TestStateDict_ShapeMismatch rejects buffers with the wrong shape.
func TestStateDict_ShapeMismatch(t *testing.T) {
	param := makeParam(t, "w", 1.0, 2.0)
	opt, err := optimizer.NewAdamW([]*nn.Parameter{param}, optimizer.AdamWConfig{})
	if err != nil {
		t.Fatalf("NewAdamW: %v", err)
	}

	bad, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	if err := opt.LoadStateDict(map[string]*tensor.Tensor{"exp_avg.0": bad}); err == nil {
		t.Fatal("expected shape mismatch error")
	}
}

// TestLookahead_SlowWeightSync checks the slow weights interpolate every k
// steps.
func TestLookahead_SlowWeightSync(t *testing.T) {
	param := makeParam(t, "x", 1.0)
	inner, err := optimizer.NewSGD([]*nn.Parameter{param}, optimizer.SGDConfig{LR: 0.1})
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}
	opt, err := optimizer.NewLookahead(inner, optimizer.LookaheadConfig{K: 2, Alpha: 0.5})
	if err != nil {
		t.Fatalf("NewLookahead: %v", err)
	}

	// Two fast steps with grad 1.0: x goes 1.0 -> 0.9 -> 0.8.
	// Sync: slow = 1.0 + 0.5 * (0.8 - 1.0) = 0.9, fast = slow.
	for i := 0; i < 2; i++ {
		setGrad(t, param, 1.0)
		if err := opt.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	actual := param.Tensor().Data()[0]
	if !floatEqual(actual, 0.9, 1e-6) {
		t.Errorf("lookahead sync: got %f, want %f", actual, 0.9)
	}
}

// TestSAM_StepWithClosure runs the two-phase update on the quadratic.
func TestSAM_StepWithClosure(t *testing.T) {
	param := makeParam(t, "x", 0.0)
	inner, err := optimizer.NewSGD([]*nn.Parameter{param}, optimizer.SGDConfig{LR: 0.1})
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}
	opt, err := optimizer.NewSAM(inner, optimizer.SAMConfig{Rho: 0.05})
	if err != nil {
		t.Fatalf("NewSAM: %v", err)
	}

	computeGrad := func() error {
		x := param.Tensor().Data()[0]
		setGrad(t, param, 2*(x-3))
		return nil
	}

	for i := 0; i < 200; i++ {
		if err := computeGrad(); err != nil {
			t.Fatal(err)
		}
		if err := opt.Step(computeGrad); err != nil {
			t.Fatalf("Step: %v", err)
		}
		opt.ZeroGrad()
	}

	actual := param.Tensor().Data()[0]
	if !floatEqual(actual, 3.0, 0.1) {
		t.Errorf("SAM did not converge: got %f, want 3.0", actual)
	}

	if err := opt.Step(nil); err == nil {
		t.Error("expected error for nil closure")
	}
}

// TestPCGrad_ConflictingGradients verifies conflicting task gradients get
// projected before the update.
func TestPCGrad_ConflictingGradients(t *testing.T) {
	param := makeParam(t, "x", 0.0, 0.0)
	inner, err := optimizer.NewSGD([]*nn.Parameter{param}, optimizer.SGDConfig{LR: 1.0})
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}
	opt, err := optimizer.NewPCGrad(inner, optimizer.PCGradConfig{Reduction: "sum"})
	if err != nil {
		t.Fatalf("NewPCGrad: %v", err)
	}

	// Task gradients (1, 1) and (-1, 0) conflict: their dot product is -1.
	// After surgery neither surgered gradient has a component against the
	// other, so the merged update cannot fight itself.
	objectives := []func() error{
		func() error { setGrad(t, param, 1.0, 1.0); return nil },
		func() error { setGrad(t, param, -1.0, 0.0); return nil },
	}
	if err := opt.Backward(objectives); err != nil {
		t.Fatalf("Backward: %v", err)
	}

	grad := param.Grad()
	if grad == nil {
		t.Fatal("no merged gradient")
	}
	// g1 projected: (1,1) - (-1)/1 * (-1,0) = (0,1)
	// g2 projected: (-1,0) - (-1)/2 * (1,1) = (-0.5, 0.5)
	// sum = (-0.5, 1.5)
	data := grad.Data()
	if !floatEqual(data[0], -0.5, 1e-6) || !floatEqual(data[1], 1.5, 1e-6) {
		t.Errorf("surgered gradient: got (%f, %f), want (-0.5, 1.5)", data[0], data[1])
	}

	if err := opt.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
}

// TestPCGrad_DisjointObjectives verifies that a gradient produced by only
// some of the tasks survives the merge: positions not shared by every
// task are summed, never averaged or dropped.
func TestPCGrad_DisjointObjectives(t *testing.T) {
	a := makeParam(t, "a", 0.0)
	b := makeParam(t, "b", 0.0)
	inner, err := optimizer.NewSGD([]*nn.Parameter{a, b}, optimizer.SGDConfig{LR: 1.0})
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}
	opt, err := optimizer.NewPCGrad(inner, optimizer.PCGradConfig{Reduction: "mean"})
	if err != nil {
		t.Fatalf("NewPCGrad: %v", err)
	}

	objectives := []func() error{
		func() error { setGrad(t, a, 1.0); return nil },
		func() error { setGrad(t, b, 2.0); return nil },
	}
	if err := opt.Backward(objectives); err != nil {
		t.Fatalf("Backward: %v", err)
	}

	if a.Grad() == nil {
		t.Fatal("gradient for a was dropped")
	}
	if b.Grad() == nil {
		t.Fatal("gradient for b was dropped")
	}
	if !floatEqual(a.Grad().Data()[0], 1.0, 1e-6) {
		t.Errorf("a gradient: got %f, want 1.0", a.Grad().Data()[0])
	}
	if !floatEqual(b.Grad().Data()[0], 2.0, 1e-6) {
		t.Errorf("b gradient: got %f, want 2.0", b.Grad().Data()[0])
	}
}
