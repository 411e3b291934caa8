package tensor

import (
	"math"
	"testing"
)

func floatEqual(a, b, eps float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < eps
}

func TestNew_ShapeMismatch(t *testing.T) {
	if _, err := New([]float32{1, 2, 3}, Shape{2, 2}); err == nil {
		t.Error("expected error for mismatched data length")
	}
	if _, err := New([]float32{1, 2, 3, 4}, Shape{2, 0}); err == nil {
		t.Error("expected error for zero dimension")
	}
}

func TestZerosOnesFull(t *testing.T) {
	z := Zeros(Shape{2, 3})
	if z.NumElements() != 6 {
		t.Fatalf("NumElements: got %d, want 6", z.NumElements())
	}
	for _, v := range z.Data() {
		if v != 0 {
			t.Fatalf("Zeros produced %f", v)
		}
	}

	o := Ones(Shape{4})
	for _, v := range o.Data() {
		if v != 1 {
			t.Fatalf("Ones produced %f", v)
		}
	}

	f := Full(Shape{2}, 3.5)
	if f.Data()[0] != 3.5 || f.Data()[1] != 3.5 {
		t.Errorf("Full: got %v", f.Data())
	}
}

func TestEye(t *testing.T) {
	e := Eye(3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := float32(0)
			if i == j {
				want = 1
			}
			if e.Data()[i*3+j] != want {
				t.Errorf("Eye[%d][%d]: got %f, want %f", i, j, e.Data()[i*3+j], want)
			}
		}
	}
}

func TestElementwiseOps(t *testing.T) {
	a, _ := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2})
	b, _ := FromSlice([]float32{4, 3, 2, 1}, Shape{2, 2})

	sum := a.Add(b)
	for _, v := range sum.Data() {
		if v != 5 {
			t.Errorf("Add: got %f, want 5", v)
		}
	}

	diff := a.Sub(b)
	wantDiff := []float32{-3, -1, 1, 3}
	for i, v := range diff.Data() {
		if v != wantDiff[i] {
			t.Errorf("Sub[%d]: got %f, want %f", i, v, wantDiff[i])
		}
	}

	prod := a.Mul(b)
	wantProd := []float32{4, 6, 6, 4}
	for i, v := range prod.Data() {
		if v != wantProd[i] {
			t.Errorf("Mul[%d]: got %f, want %f", i, v, wantProd[i])
		}
	}
}

func TestScalarOps(t *testing.T) {
	a, _ := FromSlice([]float32{1, -2, 3}, Shape{3})

	scaled := a.MulScalar(2)
	if scaled.Data()[1] != -4 {
		t.Errorf("MulScalar: got %f, want -4", scaled.Data()[1])
	}

	shifted := a.AddScalar(1)
	if shifted.Data()[0] != 2 {
		t.Errorf("AddScalar: got %f, want 2", shifted.Data()[0])
	}

	a.MulScalarInPlace(3)
	if a.Data()[2] != 9 {
		t.Errorf("MulScalarInPlace: got %f, want 9", a.Data()[2])
	}
}

func TestSignSqrtPow(t *testing.T) {
	a, _ := FromSlice([]float32{-4, 0, 9}, Shape{3})

	sign := a.Sign()
	want := []float32{-1, 0, 1}
	for i, v := range sign.Data() {
		if v != want[i] {
			t.Errorf("Sign[%d]: got %f, want %f", i, v, want[i])
		}
	}

	b, _ := FromSlice([]float32{4, 9}, Shape{2})
	root := b.Sqrt()
	if root.Data()[0] != 2 || root.Data()[1] != 3 {
		t.Errorf("Sqrt: got %v", root.Data())
	}

	p := b.Pow(-0.5)
	if !floatEqual(p.Data()[0], 0.5, 1e-6) {
		t.Errorf("Pow(-0.5): got %f, want 0.5", p.Data()[0])
	}
}

func TestReductions(t *testing.T) {
	a, _ := FromSlice([]float32{3, 4}, Shape{2})

	if a.Sum() != 7 {
		t.Errorf("Sum: got %f, want 7", a.Sum())
	}
	if a.Mean() != 3.5 {
		t.Errorf("Mean: got %f, want 3.5", a.Mean())
	}
	if !floatEqual(a.Norm(), 5, 1e-6) {
		t.Errorf("Norm: got %f, want 5", a.Norm())
	}

	b, _ := FromSlice([]float32{-7, 2}, Shape{2})
	if b.AbsMax() != 7 {
		t.Errorf("AbsMax: got %f, want 7", b.AbsMax())
	}

	dot, err := Dot(a, b)
	if err != nil {
		t.Fatalf("Dot: %v", err)
	}
	if !floatEqual(dot, -13, 1e-6) {
		t.Errorf("Dot: got %f, want -13", dot)
	}
}

func TestCloneIndependence(t *testing.T) {
	a, _ := FromSlice([]float32{1, 2}, Shape{2})
	c := a.Clone()
	c.Data()[0] = 99
	if a.Data()[0] != 1 {
		t.Error("Clone shares storage with original")
	}
}

func TestReshapeSharesData(t *testing.T) {
	a, _ := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	r, err := a.Reshape(Shape{3, 2})
	if err != nil {
		t.Fatalf("Reshape: %v", err)
	}
	r.Data()[0] = 42
	if a.Data()[0] != 42 {
		t.Error("Reshape should return a view over the same data")
	}

	if _, err := a.Reshape(Shape{4, 2}); err == nil {
		t.Error("expected error reshaping to different element count")
	}
}

func TestRandn_Distribution(t *testing.T) {
	r := Randn(Shape{10000})
	mean := float64(r.Mean())
	if math.Abs(mean) > 0.1 {
		t.Errorf("Randn mean too far from 0: %f", mean)
	}
}

func TestRandSigned_Range(t *testing.T) {
	r := RandSigned(Shape{1000})
	for _, v := range r.Data() {
		if v <= -1 || v >= 1 {
			t.Fatalf("RandSigned value out of (-1, 1): %f", v)
		}
	}
}

func TestLinspace(t *testing.T) {
	l := Linspace(0, 1, 5)
	want := []float32{0, 0.25, 0.5, 0.75, 1}
	for i, v := range l.Data() {
		if !floatEqual(v, want[i], 1e-6) {
			t.Fatalf("Linspace[%d] = %f, want %f", i, v, want[i])
		}
	}

	single := Linspace(3, 7, 1)
	if single.Data()[0] != 3 {
		t.Errorf("Linspace with n=1 should hold start, got %f", single.Data()[0])
	}
}

func TestAbsClampMax(t *testing.T) {
	a, _ := FromSlice([]float32{-3, 1, -0.5, 2}, Shape{4})

	abs := a.Abs()
	for i, want := range []float32{3, 1, 0.5, 2} {
		if abs.Data()[i] != want {
			t.Fatalf("Abs[%d] = %f, want %f", i, abs.Data()[i], want)
		}
	}

	c := a.Clamp(-1, 1)
	for i, want := range []float32{-1, 1, -0.5, 1} {
		if c.Data()[i] != want {
			t.Fatalf("Clamp[%d] = %f, want %f", i, c.Data()[i], want)
		}
	}

	if a.Max() != 2 {
		t.Errorf("Max = %f, want 2", a.Max())
	}
}
