package tensor

import "fmt"

// MatMul computes the matrix product of two 2-D tensors.
//
// a has shape [m, k], b has shape [k, n]; the result has shape [m, n].
func MatMul(a, b *Tensor) (*Tensor, error) {
	if len(a.shape) != 2 || len(b.shape) != 2 {
		return nil, fmt.Errorf("matmul requires 2-D tensors, got %v and %v", a.shape, b.shape)
	}
	m, k := a.shape[0], a.shape[1]
	k2, n := b.shape[0], b.shape[1]
	if k != k2 {
		return nil, fmt.Errorf("matmul inner dimension mismatch: %v vs %v", a.shape, b.shape)
	}

	out := Zeros(Shape{m, n})
	for i := 0; i < m; i++ {
		for l := 0; l < k; l++ {
			av := a.data[i*k+l]
			if av == 0 {
				continue
			}
			row := b.data[l*n : (l+1)*n]
			outRow := out.data[i*n : (i+1)*n]
			for j, bv := range row {
				outRow[j] += av * bv
			}
		}
	}
	return out, nil
}

// MatVec computes the matrix-vector product of a 2-D tensor and a 1-D tensor.
func MatVec(m, v *Tensor) (*Tensor, error) {
	if len(m.shape) != 2 || len(v.shape) != 1 {
		return nil, fmt.Errorf("matvec requires a 2-D matrix and 1-D vector, got %v and %v", m.shape, v.shape)
	}
	rows, cols := m.shape[0], m.shape[1]
	if cols != v.shape[0] {
		return nil, fmt.Errorf("matvec dimension mismatch: %v vs %v", m.shape, v.shape)
	}

	out := Zeros(Shape{rows})
	for i := 0; i < rows; i++ {
		var sum float64
		row := m.data[i*cols : (i+1)*cols]
		for j, mv := range row {
			sum += float64(mv) * float64(v.data[j])
		}
		out.data[i] = float32(sum)
	}
	return out, nil
}

// Transpose returns the transpose of a 2-D tensor.
func Transpose(t *Tensor) (*Tensor, error) {
	if len(t.shape) != 2 {
		return nil, fmt.Errorf("transpose requires a 2-D tensor, got %v", t.shape)
	}
	rows, cols := t.shape[0], t.shape[1]
	out := Zeros(Shape{cols, rows})
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.data[j*rows+i] = t.data[i*cols+j]
		}
	}
	return out, nil
}

// Permute rearranges tensor axes according to the given permutation.
func Permute(t *Tensor, axes []int) (*Tensor, error) {
	rank := len(t.shape)
	if len(axes) != rank {
		return nil, fmt.Errorf("permute axes %v do not match rank %d", axes, rank)
	}
	seen := make([]bool, rank)
	newShape := make(Shape, rank)
	for i, ax := range axes {
		if ax < 0 || ax >= rank || seen[ax] {
			return nil, fmt.Errorf("invalid permutation %v for rank %d", axes, rank)
		}
		seen[ax] = true
		newShape[i] = t.shape[ax]
	}

	out := Zeros(newShape)
	oldStrides := t.shape.ComputeStrides()
	newStrides := newShape.ComputeStrides()

	idx := make([]int, rank)
	for pos := range out.data {
		// Decompose pos into multi-index over the permuted shape.
		rem := pos
		for d := 0; d < rank; d++ {
			idx[d] = rem / newStrides[d]
			rem %= newStrides[d]
		}
		oldPos := 0
		for d := 0; d < rank; d++ {
			oldPos += idx[d] * oldStrides[axes[d]]
		}
		out.data[pos] = t.data[oldPos]
	}
	return out, nil
}

// TensorDot contracts the given axes of a against the given axes of b.
//
// The result's shape is the free axes of a followed by the free axes of b,
// matching the semantics used when accumulating preconditioner statistics
// (contracting a gradient against itself over all axes but one).
func TensorDot(a, b *Tensor, axesA, axesB []int) (*Tensor, error) {
	if len(axesA) != len(axesB) {
		return nil, fmt.Errorf("tensordot: axis count mismatch %v vs %v", axesA, axesB)
	}
	for i := range axesA {
		if a.shape[axesA[i]] != b.shape[axesB[i]] {
			return nil, fmt.Errorf("tensordot: contracted dims differ: %v@%v vs %v@%v",
				a.shape, axesA, b.shape, axesB)
		}
	}

	freeA := freeAxes(len(a.shape), axesA)
	freeB := freeAxes(len(b.shape), axesB)

	// Collapse a to [M, K] and b to [K, N] then multiply.
	pa, err := Permute(a, append(append([]int{}, freeA...), axesA...))
	if err != nil {
		return nil, err
	}
	pb, err := Permute(b, append(append([]int{}, axesB...), freeB...))
	if err != nil {
		return nil, err
	}

	m, n, k := 1, 1, 1
	outShape := Shape{}
	for _, ax := range freeA {
		m *= a.shape[ax]
		outShape = append(outShape, a.shape[ax])
	}
	for _, ax := range axesA {
		k *= a.shape[ax]
	}
	for _, ax := range freeB {
		n *= b.shape[ax]
		outShape = append(outShape, b.shape[ax])
	}
	if len(outShape) == 0 {
		outShape = Shape{1}
	}

	ma, err := pa.Reshape(Shape{m, k})
	if err != nil {
		return nil, err
	}
	mb, err := pb.Reshape(Shape{k, n})
	if err != nil {
		return nil, err
	}
	prod, err := MatMul(ma, mb)
	if err != nil {
		return nil, err
	}
	return prod.Reshape(outShape)
}

func freeAxes(rank int, contracted []int) []int {
	free := make([]int, 0, rank-len(contracted))
	for ax := 0; ax < rank; ax++ {
		isContracted := false
		for _, c := range contracted {
			if c == ax {
				isContracted = true
				break
			}
		}
		if !isContracted {
			free = append(free, ax)
		}
	}
	return free
}

// Split divides a tensor along an axis into chunks of the given sizes.
//
// The sizes must sum to the axis dimension.
func Split(t *Tensor, axis int, sizes []int) ([]*Tensor, error) {
	if axis < 0 || axis >= len(t.shape) {
		return nil, fmt.Errorf("split axis %d out of range for shape %v", axis, t.shape)
	}
	total := 0
	for _, s := range sizes {
		total += s
	}
	if total != t.shape[axis] {
		return nil, fmt.Errorf("split sizes %v do not sum to dim %d of %v", sizes, axis, t.shape)
	}

	outer := 1
	for _, d := range t.shape[:axis] {
		outer *= d
	}
	inner := 1
	for _, d := range t.shape[axis+1:] {
		inner *= d
	}
	axisDim := t.shape[axis]

	results := make([]*Tensor, len(sizes))
	offset := 0
	for si, size := range sizes {
		shape := t.shape.Clone()
		shape[axis] = size
		out := Zeros(shape)
		for o := 0; o < outer; o++ {
			srcBase := (o*axisDim + offset) * inner
			dstBase := o * size * inner
			copy(out.data[dstBase:dstBase+size*inner], t.data[srcBase:srcBase+size*inner])
		}
		results[si] = out
		offset += size
	}
	return results, nil
}

// Concat joins tensors along an axis. All other dimensions must match.
func Concat(tensors []*Tensor, axis int) (*Tensor, error) {
	if len(tensors) == 0 {
		return nil, fmt.Errorf("concat of zero tensors")
	}
	first := tensors[0]
	if axis < 0 || axis >= len(first.shape) {
		return nil, fmt.Errorf("concat axis %d out of range for shape %v", axis, first.shape)
	}

	axisTotal := 0
	for _, t := range tensors {
		if len(t.shape) != len(first.shape) {
			return nil, fmt.Errorf("concat rank mismatch: %v vs %v", first.shape, t.shape)
		}
		for d := range t.shape {
			if d != axis && t.shape[d] != first.shape[d] {
				return nil, fmt.Errorf("concat shape mismatch on dim %d: %v vs %v", d, first.shape, t.shape)
			}
		}
		axisTotal += t.shape[axis]
	}

	outShape := first.shape.Clone()
	outShape[axis] = axisTotal
	out := Zeros(outShape)

	outer := 1
	for _, d := range first.shape[:axis] {
		outer *= d
	}
	inner := 1
	for _, d := range first.shape[axis+1:] {
		inner *= d
	}

	offset := 0
	for _, t := range tensors {
		size := t.shape[axis]
		for o := 0; o < outer; o++ {
			srcBase := o * size * inner
			dstBase := (o*axisTotal + offset) * inner
			copy(out.data[dstBase:dstBase+size*inner], t.data[srcBase:srcBase+size*inner])
		}
		offset += size
	}
	return out, nil
}
