package nn_test

import (
	"testing"

	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

func floatEqual(a, b float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-5
}

func TestParameter_GradLifecycle(t *testing.T) {
	p := nn.NewParameter("w", tensor.Ones(tensor.Shape{3}))

	if p.Grad() != nil {
		t.Fatal("fresh parameter should have no gradient")
	}

	g := tensor.Full(tensor.Shape{3}, 0.5)
	p.SetGrad(g)
	if p.Grad() == nil {
		t.Fatal("gradient not stored")
	}

	p.ZeroGrad()
	if p.Grad() != nil {
		t.Fatal("ZeroGrad should clear the gradient")
	}
}

func TestLinear_ForwardShape(t *testing.T) {
	layer := nn.NewLinear(4, 3)

	input := tensor.Ones(tensor.Shape{2, 4})
	out, err := layer.Forward(input)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if !out.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("expected output shape [2 3], got %v", out.Shape())
	}
}

func TestLinear_ForwardRejectsBadShape(t *testing.T) {
	layer := nn.NewLinear(4, 3)

	if _, err := layer.Forward(tensor.Ones(tensor.Shape{2, 5})); err == nil {
		t.Fatal("expected error for mismatched input width")
	}
}

func TestLinear_KnownWeights(t *testing.T) {
	layer := nn.NewLinear(2, 1)
	copy(layer.Weight().Tensor().Data(), []float32{1, 2})
	layer.Bias().Tensor().Data()[0] = 0.5

	input, err := tensor.FromSlice([]float32{3, 4}, tensor.Shape{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	out, err := layer.Forward(input)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}

	// 1*3 + 2*4 + 0.5
	if !floatEqual(out.Data()[0], 11.5) {
		t.Fatalf("expected 11.5, got %f", out.Data()[0])
	}
}

func TestSigmoid(t *testing.T) {
	in, err := tensor.FromSlice([]float32{0, 100, -100}, tensor.Shape{3})
	if err != nil {
		t.Fatal(err)
	}
	out := nn.Sigmoid(in)

	if !floatEqual(out.Data()[0], 0.5) {
		t.Fatalf("sigmoid(0) should be 0.5, got %f", out.Data()[0])
	}
	if !floatEqual(out.Data()[1], 1.0) {
		t.Fatalf("sigmoid(100) should saturate to 1, got %f", out.Data()[1])
	}
	if !floatEqual(out.Data()[2], 0.0) {
		t.Fatalf("sigmoid(-100) should saturate to 0, got %f", out.Data()[2])
	}
}

func TestXavier_Bounds(t *testing.T) {
	w := nn.Xavier(100, 100, tensor.Shape{100, 100})

	// Glorot uniform limit sqrt(6/200) for fanIn = fanOut = 100.
	limit := float32(0.17320509)
	for _, v := range w.Data() {
		if v < -limit || v > limit {
			t.Fatalf("value %f outside Xavier bound %f", v, limit)
		}
	}
}

func TestLogisticRegression_ForwardShape(t *testing.T) {
	model := nn.NewLogisticRegression()

	if got := len(model.Parameters()); got != 4 {
		t.Fatalf("expected 4 parameters, got %d", got)
	}

	out, err := model.Forward(tensor.Ones(tensor.Shape{8, 2}))
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if !out.Shape().Equal(tensor.Shape{8, 1}) {
		t.Fatalf("expected output shape [8 1], got %v", out.Shape())
	}
	for _, v := range out.Data() {
		if v <= 0 || v >= 1 {
			t.Fatalf("probability out of (0, 1): %f", v)
		}
	}
}
