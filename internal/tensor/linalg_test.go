package tensor

import "testing"

func TestMatMul(t *testing.T) {
	a, _ := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	b, _ := FromSlice([]float32{7, 8, 9, 10, 11, 12}, Shape{3, 2})

	c, err := MatMul(a, b)
	if err != nil {
		t.Fatalf("MatMul: %v", err)
	}
	if !c.Shape().Equal(Shape{2, 2}) {
		t.Fatalf("MatMul shape: got %v, want [2 2]", c.Shape())
	}
	want := []float32{58, 64, 139, 154}
	for i, v := range c.Data() {
		if v != want[i] {
			t.Errorf("MatMul[%d]: got %f, want %f", i, v, want[i])
		}
	}

	if _, err := MatMul(a, a); err == nil {
		t.Error("expected inner-dimension mismatch error")
	}
}

func TestMatVec(t *testing.T) {
	m, _ := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2})
	v, _ := FromSlice([]float32{1, -1}, Shape{2})

	out, err := MatVec(m, v)
	if err != nil {
		t.Fatalf("MatVec: %v", err)
	}
	if out.Data()[0] != -1 || out.Data()[1] != -1 {
		t.Errorf("MatVec: got %v, want [-1 -1]", out.Data())
	}
}

func TestTranspose(t *testing.T) {
	a, _ := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	at, err := Transpose(a)
	if err != nil {
		t.Fatalf("Transpose: %v", err)
	}
	if !at.Shape().Equal(Shape{3, 2}) {
		t.Fatalf("Transpose shape: got %v", at.Shape())
	}
	want := []float32{1, 4, 2, 5, 3, 6}
	for i, v := range at.Data() {
		if v != want[i] {
			t.Errorf("Transpose[%d]: got %f, want %f", i, v, want[i])
		}
	}
}

func TestPermute(t *testing.T) {
	// Shape [2, 3, 4] -> [4, 2, 3]
	data := make([]float32, 24)
	for i := range data {
		data[i] = float32(i)
	}
	a, _ := FromSlice(data, Shape{2, 3, 4})

	p, err := Permute(a, []int{2, 0, 1})
	if err != nil {
		t.Fatalf("Permute: %v", err)
	}
	if !p.Shape().Equal(Shape{4, 2, 3}) {
		t.Fatalf("Permute shape: got %v", p.Shape())
	}
	// p[k][i][j] == a[i][j][k]
	if p.Data()[0] != 0 {
		t.Errorf("p[0,0,0]: got %f, want 0", p.Data()[0])
	}
	// p[1][1][2] == a[1][2][1] == 1*12 + 2*4 + 1 = 21
	idx := 1*(2*3) + 1*3 + 2
	if p.Data()[idx] != 21 {
		t.Errorf("p[1,1,2]: got %f, want 21", p.Data()[idx])
	}

	if _, err := Permute(a, []int{0, 0, 1}); err == nil {
		t.Error("expected error for invalid permutation")
	}
}

func TestTensorDot_GramMatrix(t *testing.T) {
	// Contracting a [2, 3] gradient with itself over axis 1 yields the
	// [2, 2] statistics matrix G @ G^T.
	g, _ := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})

	stat, err := TensorDot(g, g, []int{1}, []int{1})
	if err != nil {
		t.Fatalf("TensorDot: %v", err)
	}
	if !stat.Shape().Equal(Shape{2, 2}) {
		t.Fatalf("TensorDot shape: got %v, want [2 2]", stat.Shape())
	}
	want := []float32{14, 32, 32, 77}
	for i, v := range stat.Data() {
		if v != want[i] {
			t.Errorf("TensorDot[%d]: got %f, want %f", i, v, want[i])
		}
	}
}

func TestTensorDot_MatrixApply(t *testing.T) {
	// Contracting axis 0 of a [2, 3] tensor with axis 0 of a [2, 2]
	// preconditioner is how preconditioned gradients are assembled.
	g, _ := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	p := Eye(2)

	out, err := TensorDot(g, p, []int{0}, []int{0})
	if err != nil {
		t.Fatalf("TensorDot: %v", err)
	}
	if !out.Shape().Equal(Shape{3, 2}) {
		t.Fatalf("TensorDot shape: got %v, want [3 2]", out.Shape())
	}
	// Identity preconditioner: out[j][i] == g[i][j].
	want := []float32{1, 4, 2, 5, 3, 6}
	for i, v := range out.Data() {
		if v != want[i] {
			t.Errorf("TensorDot[%d]: got %f, want %f", i, v, want[i])
		}
	}
}

func TestSplitConcatRoundTrip(t *testing.T) {
	data := make([]float32, 12)
	for i := range data {
		data[i] = float32(i)
	}
	a, _ := FromSlice(data, Shape{4, 3})

	parts, err := Split(a, 0, []int{3, 1})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if !parts[0].Shape().Equal(Shape{3, 3}) || !parts[1].Shape().Equal(Shape{1, 3}) {
		t.Fatalf("Split shapes: got %v, %v", parts[0].Shape(), parts[1].Shape())
	}
	if parts[1].Data()[0] != 9 {
		t.Errorf("Split second part: got %f, want 9", parts[1].Data()[0])
	}

	merged, err := Concat(parts, 0)
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	for i, v := range merged.Data() {
		if v != data[i] {
			t.Fatalf("round trip mismatch at %d: got %f, want %f", i, v, data[i])
		}
	}
}

func TestSplitAlongInnerAxis(t *testing.T) {
	data := make([]float32, 6)
	for i := range data {
		data[i] = float32(i)
	}
	a, _ := FromSlice(data, Shape{2, 3})

	parts, err := Split(a, 1, []int{2, 1})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	want0 := []float32{0, 1, 3, 4}
	for i, v := range parts[0].Data() {
		if v != want0[i] {
			t.Errorf("part0[%d]: got %f, want %f", i, v, want0[i])
		}
	}
	want1 := []float32{2, 5}
	for i, v := range parts[1].Data() {
		if v != want1[i] {
			t.Errorf("part1[%d]: got %f, want %f", i, v, want1[i])
		}
	}
}
