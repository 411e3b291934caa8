package optimizer_test

import (
	"testing"

	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/optimizer"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// TestGetGlobalGradientNorm combines gradients across parameters.
func TestGetGlobalGradientNorm(t *testing.T) {
	a := makeParam(t, "a", 0, 0)
	b := makeParam(t, "b", 0)
	setGrad(t, a, 3.0, 0.0)
	setGrad(t, b, 4.0)

	// sqrt(3^2 + 4^2) = 5
	norm := optimizer.GetGlobalGradientNorm([]*nn.Parameter{a, b})
	if !floatEqual(norm, 5.0, 1e-6) {
		t.Errorf("global norm: got %f, want 5", norm)
	}
}

// TestClipGradNorm rescales gradients above the threshold and leaves
// gradients below it alone.
func TestClipGradNorm(t *testing.T) {
	p := makeParam(t, "p", 0, 0)
	setGrad(t, p, 3.0, 4.0)

	before := optimizer.ClipGradNorm([]*nn.Parameter{p}, 1.0)
	if !floatEqual(before, 5.0, 1e-6) {
		t.Errorf("pre-clip norm: got %f, want 5", before)
	}
	after := optimizer.GetGlobalGradientNorm([]*nn.Parameter{p})
	if !floatEqual(after, 1.0, 1e-4) {
		t.Errorf("post-clip norm: got %f, want 1", after)
	}

	setGrad(t, p, 0.3, 0.4)
	optimizer.ClipGradNorm([]*nn.Parameter{p}, 1.0)
	if g := p.Grad().Data(); !floatEqual(g[0], 0.3, 1e-6) || !floatEqual(g[1], 0.4, 1e-6) {
		t.Errorf("small gradient was touched: (%f, %f)", g[0], g[1])
	}
}

// TestNormalizeGradient produces a unit length gradient.
func TestNormalizeGradient(t *testing.T) {
	g, err := tensor.FromSlice([]float32{3, 4}, tensor.Shape{2})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	optimizer.NormalizeGradient(g)
	if !floatEqual(g.Norm(), 1.0, 1e-6) {
		t.Errorf("normalized norm: got %f, want 1", g.Norm())
	}

	zero := tensor.Zeros(tensor.Shape{2})
	optimizer.NormalizeGradient(zero)
	if zero.Data()[0] != 0 {
		t.Error("zero gradient was modified")
	}
}

// TestUnitNorm computes per-row norms for matrices and the full norm for
// vectors.
func TestUnitNorm(t *testing.T) {
	m, err := tensor.FromSlice([]float32{
		3, 4,
		0, 2,
	}, tensor.Shape{2, 2})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	norms := optimizer.UnitNorm(m)
	if !floatEqual(norms.Data()[0], 5.0, 1e-6) || !floatEqual(norms.Data()[1], 2.0, 1e-6) {
		t.Errorf("row norms: got (%f, %f), want (5, 2)", norms.Data()[0], norms.Data()[1])
	}

	v, err := tensor.FromSlice([]float32{3, 4}, tensor.Shape{2})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	if n := optimizer.UnitNorm(v); !floatEqual(n.Data()[0], 5.0, 1e-6) {
		t.Errorf("vector norm: got %f, want 5", n.Data()[0])
	}
}

// TestCentralizeGradient removes the mean per row.
func TestCentralizeGradient(t *testing.T) {
	g, err := tensor.FromSlice([]float32{
		1, 2, 3,
		10, 20, 30,
	}, tensor.Shape{2, 3})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	optimizer.CentralizeGradient(g)
	data := g.Data()
	want := []float32{-1, 0, 1, -10, 0, 10}
	for i := range want {
		if !floatEqual(data[i], want[i], 1e-5) {
			t.Errorf("centralized[%d] = %f, want %f", i, data[i], want[i])
		}
	}
}

// TestAGC clips gradient rows relative to the matching parameter rows.
func TestAGC(t *testing.T) {
	param, err := tensor.FromSlice([]float32{
		1, 0,
		1, 0,
	}, tensor.Shape{2, 2})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	grad, err := tensor.FromSlice([]float32{
		10, 0,
		0.001, 0,
	}, tensor.Shape{2, 2})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	optimizer.AGC(param, grad, 1e-3, 0.01)

	// Row 0: grad norm 10 exceeds 0.01 * 1, clipped down to 0.01.
	// Row 1: grad norm 0.001 is within bounds, untouched.
	data := grad.Data()
	if !floatEqual(data[0], 0.01, 1e-5) {
		t.Errorf("clipped value: got %f, want 0.01", data[0])
	}
	if !floatEqual(data[2], 0.001, 1e-7) {
		t.Errorf("unclipped value: got %f, want 0.001", data[2])
	}
}
