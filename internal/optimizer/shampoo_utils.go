package optimizer

import (
	"fmt"
	"math"

	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

// GraftType selects the layer-wise grafting scheme for Shampoo. Grafting
// takes the Shampoo direction but borrows the step magnitude from a well
// tuned first-order method such as SGD or Adagrad.
//
// Reference: "Disentangling Adaptive Gradient Methods from Learning Rates"
// (Agarwal et al., 2020)
type GraftType int

const (
	GraftNone GraftType = iota
	GraftSGD
	GraftAdagrad
	GraftRMSProp
	GraftSQRTN
)

// PreconditionerType selects which dims get a Kronecker factor. All
// preconditions every dim. Input is one-sided Shampoo, assuming the last
// dim is the output dim and preconditioning only the input dims.
type PreconditionerType int

const (
	PreconditionerAll PreconditionerType = iota
	PreconditionerInput
)

// graft borrows a per-layer step magnitude for Shampoo.
type graft interface {
	AddStatistics(grad *tensor.Tensor, beta2 float32)
	PreconditionGradient(grad *tensor.Tensor) *tensor.Tensor
	UpdateMomentum(update *tensor.Tensor, beta1 float32) *tensor.Tensor
}

// noneGraft leaves the gradient untouched.
type noneGraft struct{}

func (noneGraft) AddStatistics(*tensor.Tensor, float32) {}

func (noneGraft) PreconditionGradient(grad *tensor.Tensor) *tensor.Tensor {
	return grad
}

func (noneGraft) UpdateMomentum(update *tensor.Tensor, _ float32) *tensor.Tensor {
	return update
}

// sgdGraft keeps an exponentially weighted moving average of updates.
type sgdGraft struct {
	momentum *tensor.Tensor
}

func (g *sgdGraft) AddStatistics(*tensor.Tensor, float32) {}

func (g *sgdGraft) PreconditionGradient(grad *tensor.Tensor) *tensor.Tensor {
	return grad
}

func (g *sgdGraft) UpdateMomentum(update *tensor.Tensor, beta1 float32) *tensor.Tensor {
	g.momentum.MulScalarInPlace(beta1)
	g.momentum.AddInPlace(update, 1.0)
	return g.momentum
}

// sqrtnGraft normalizes the gradient to its elementwise sign.
type sqrtnGraft struct {
	sgdGraft
}

func (g *sqrtnGraft) PreconditionGradient(grad *tensor.Tensor) *tensor.Tensor {
	return grad.Sign()
}

// adagradGraft accumulates squared gradients for Adagrad-style scaling.
type adagradGraft struct {
	sgdGraft
	diagonalEps float32
	statistics  *tensor.Tensor
}

func (g *adagradGraft) AddStatistics(grad *tensor.Tensor, _ float32) {
	gradData := grad.Data()
	statData := g.statistics.Data()
	for i, v := range gradData {
		statData[i] += v * v
	}
}

func (g *adagradGraft) PreconditionGradient(grad *tensor.Tensor) *tensor.Tensor {
	out := grad.Clone()
	outData := out.Data()
	statData := g.statistics.Data()
	for i := range outData {
		outData[i] /= sqrtf(statData[i]) + g.diagonalEps
	}
	return out
}

// rmspropGraft keeps a decaying average of squared gradients.
type rmspropGraft struct {
	sgdGraft
	diagonalEps float32
	statistics  *tensor.Tensor
}

func (g *rmspropGraft) AddStatistics(grad *tensor.Tensor, beta2 float32) {
	gradData := grad.Data()
	statData := g.statistics.Data()
	for i, v := range gradData {
		statData[i] = beta2*statData[i] + (1.0-beta2)*v*v
	}
}

func (g *rmspropGraft) PreconditionGradient(grad *tensor.Tensor) *tensor.Tensor {
	out := grad.Clone()
	outData := out.Data()
	statData := g.statistics.Data()
	for i := range outData {
		outData[i] /= sqrtf(statData[i]) + g.diagonalEps
	}
	return out
}

// newGraft builds the grafting scheme for a parameter of the given shape.
func newGraft(shape tensor.Shape, graftType GraftType, diagonalEps float32) (graft, error) {
	switch graftType {
	case GraftNone:
		return noneGraft{}, nil
	case GraftSGD:
		return &sgdGraft{momentum: tensor.Zeros(shape)}, nil
	case GraftSQRTN:
		return &sqrtnGraft{sgdGraft{momentum: tensor.Zeros(shape)}}, nil
	case GraftAdagrad:
		return &adagradGraft{
			sgdGraft:    sgdGraft{momentum: tensor.Zeros(shape)},
			diagonalEps: diagonalEps,
			statistics:  tensor.Zeros(shape),
		}, nil
	case GraftRMSProp:
		return &rmspropGraft{
			sgdGraft:    sgdGraft{momentum: tensor.Zeros(shape)},
			diagonalEps: diagonalEps,
			statistics:  tensor.Zeros(shape),
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown graft type %d", ErrInvalidHyperparameter, graftType)
	}
}

// axisSplit records how one axis is cut into blocks.
type axisSplit struct {
	axis  int
	sizes []int
}

// blockPartitioner partitions a tensor into smaller blocks for
// preconditioning. A (4096, 512) variable with block size 1024 becomes
// four (1024, 512) blocks, each cheap enough to invert.
type blockPartitioner struct {
	shape  tensor.Shape
	splits []axisSplit

	preconditionerShapes []tensor.Shape
}

func newBlockPartitioner(shape tensor.Shape, blockSize int, preconditionerType PreconditionerType) *blockPartitioner {
	p := &blockPartitioner{shape: shape.Clone()}

	splitSizes := make([][]int, 0, len(shape))
	for i, d := range shape {
		if blockSize > 0 && blockSize < d {
			numSplit := (d - 1) / blockSize
			sizes := make([]int, numSplit+1)
			for j := range sizes {
				sizes[j] = blockSize
			}
			sizes[numSplit] = d - numSplit*blockSize
			p.splits = append(p.splits, axisSplit{axis: i, sizes: sizes})
			splitSizes = append(splitSizes, sizes)
		} else {
			splitSizes = append(splitSizes, []int{d})
		}
	}

	numDims := len(splitSizes)
	for _, block := range cartesianProduct(splitSizes) {
		if preconditionerType != PreconditionerAll && numDims > 1 {
			block = block[:len(block)-1]
		}
		for _, d := range block {
			p.preconditionerShapes = append(p.preconditionerShapes, tensor.Shape{d, d})
		}
	}
	return p
}

// cartesianProduct enumerates all block shapes in row-major order,
// matching the order partition emits blocks in.
func cartesianProduct(sizes [][]int) [][]int {
	result := [][]int{{}}
	for _, options := range sizes {
		next := make([][]int, 0, len(result)*len(options))
		for _, prefix := range result {
			for _, d := range options {
				row := make([]int, len(prefix)+1)
				copy(row, prefix)
				row[len(prefix)] = d
				next = append(next, row)
			}
		}
		result = next
	}
	return result
}

// shapesForPreconditioners returns the shape of every Kronecker factor.
func (p *blockPartitioner) shapesForPreconditioners() []tensor.Shape {
	return p.preconditionerShapes
}

// partition cuts a tensor into blocks.
func (p *blockPartitioner) partition(x *tensor.Tensor) ([]*tensor.Tensor, error) {
	if !x.Shape().Equal(p.shape) {
		return nil, fmt.Errorf("partition shape mismatch: %v vs %v", p.shape, x.Shape())
	}

	tensors := []*tensor.Tensor{x}
	for _, split := range p.splits {
		var local []*tensor.Tensor
		for _, t := range tensors {
			parts, err := tensor.Split(t, split.axis, split.sizes)
			if err != nil {
				return nil, err
			}
			local = append(local, parts...)
		}
		tensors = local
	}
	return tensors, nil
}

// mergePartitions reassembles blocks back to the original shape.
func (p *blockPartitioner) mergePartitions(partitions []*tensor.Tensor) (*tensor.Tensor, error) {
	for i := len(p.splits) - 1; i >= 0; i-- {
		split := p.splits[i]
		n := len(split.sizes)

		merged := make([]*tensor.Tensor, 0, len(partitions)/n)
		for idx := 0; idx < len(partitions); idx += n {
			t, err := tensor.Concat(partitions[idx:idx+n], split.axis)
			if err != nil {
				return nil, err
			}
			merged = append(merged, t)
		}
		partitions = merged
	}
	if len(partitions) != 1 {
		return nil, fmt.Errorf("merge left %d partitions", len(partitions))
	}
	return partitions[0], nil
}

// preconditioner maintains the Kronecker-factored second-moment statistics
// of one parameter and the inverse-pth roots derived from them.
type preconditioner struct {
	beta2                   float32
	inverseExponentOverride int
	matrixEps               float32
	preconditionerType      PreconditionerType

	originalShape    tensor.Shape
	transformedShape tensor.Shape

	partitioner     *blockPartitioner
	statistics      []*tensor.Tensor
	preconditioners []*tensor.Tensor
}

func newPreconditioner(
	shape tensor.Shape,
	beta2 float32,
	inverseExponentOverride int,
	blockSize int,
	shapeInterpretation bool,
	matrixEps float32,
	preconditionerType PreconditionerType,
) *preconditioner {
	p := &preconditioner{
		beta2:                   beta2,
		inverseExponentOverride: inverseExponentOverride,
		matrixEps:               matrixEps,
		preconditionerType:      preconditionerType,
		originalShape:           shape.Clone(),
		transformedShape:        shape.Clone(),
	}
	if shapeInterpretation {
		p.transformedShape = mergeSmallDims(shape, blockSize)
	}

	if len(p.transformedShape) > 1 {
		p.partitioner = newBlockPartitioner(p.transformedShape, blockSize, preconditionerType)
		for _, s := range p.partitioner.shapesForPreconditioners() {
			p.statistics = append(p.statistics, tensor.Eye(s[0]).MulScalar(matrixEps))
			p.preconditioners = append(p.preconditioners, tensor.Eye(s[0]))
		}
	}
	return p
}

// addStatistics folds a gradient into the per-dim covariance statistics.
func (p *preconditioner) addStatistics(grad *tensor.Tensor) error {
	if len(p.statistics) == 0 {
		return nil
	}

	reshaped, err := grad.Reshape(p.transformedShape)
	if err != nil {
		return err
	}
	blocks, err := p.partitioner.partition(reshaped)
	if err != nil {
		return err
	}

	w2 := float32(1.0)
	if p.beta2 != 1.0 {
		w2 = 1.0 - p.beta2
	}
	rank := countTrue(p.shouldPreconditionDims())
	for j, block := range blocks {
		blockRank := len(block.Shape())
		for i := 0; i < rank; i++ {
			axes := make([]int, 0, blockRank-1)
			for ax := 0; ax < blockRank; ax++ {
				if ax != i {
					axes = append(axes, ax)
				}
			}
			stat, err := tensor.TensorDot(block, block, axes, axes)
			if err != nil {
				return err
			}
			target := p.statistics[j*rank+i]
			target.MulScalarInPlace(p.beta2)
			target.AddInPlace(stat, w2)
		}
	}
	return nil
}

// shouldPreconditionDims indicates for each dim whether it gets a factor.
func (p *preconditioner) shouldPreconditionDims() []bool {
	rank := len(p.transformedShape)
	dims := make([]bool, rank)
	for i := range dims {
		dims[i] = true
	}
	if p.preconditionerType != PreconditionerAll && rank > 1 {
		dims[rank-1] = false
	}
	return dims
}

// exponentForPreconditioner returns p for the inverse-pth root M^{-1/p}.
func (p *preconditioner) exponentForPreconditioner() int {
	if p.inverseExponentOverride > 0 {
		return p.inverseExponentOverride
	}
	return 2 * countTrue(p.shouldPreconditionDims())
}

// computePreconditioners refreshes L^{-1/exp} for each statistics matrix L.
func (p *preconditioner) computePreconditioners() error {
	exp := p.exponentForPreconditioner()
	for i, stat := range p.statistics {
		root, err := computePower(stat.Clone(), exp, 100, 1e-6, p.matrixEps)
		if err != nil {
			return err
		}
		p.preconditioners[i] = root
	}
	return nil
}

// preconditionBlock preconditions one gradient block. The dim being
// preconditioned is always rolled to the front, keeping the axes in their
// original cyclic order.
func preconditionBlock(block *tensor.Tensor, shouldPrecondition []bool, factors []*tensor.Tensor) (*tensor.Tensor, error) {
	rank := len(block.Shape())
	roll := make([]int, rank)
	for i := 0; i < rank-1; i++ {
		roll[i] = i + 1
	}
	roll[rank-1] = 0

	factorIdx := 0
	var err error
	for _, precondition := range shouldPrecondition {
		if !precondition {
			block, err = tensor.Permute(block, roll)
			if err != nil {
				return nil, err
			}
			continue
		}
		block, err = tensor.TensorDot(block, factors[factorIdx], []int{0}, []int{0})
		if err != nil {
			return nil, err
		}
		factorIdx++
	}
	return block, nil
}

// preconditionedGrad preconditions the gradient with the current factors.
func (p *preconditioner) preconditionedGrad(grad *tensor.Tensor) (*tensor.Tensor, error) {
	if len(p.preconditioners) == 0 {
		return grad, nil
	}

	reshaped, err := grad.Reshape(p.transformedShape)
	if err != nil {
		return nil, err
	}
	blocks, err := p.partitioner.partition(reshaped)
	if err != nil {
		return nil, err
	}

	shouldPrecondition := p.shouldPreconditionDims()
	perBlock := countTrue(shouldPrecondition)

	preconditioned := make([]*tensor.Tensor, len(blocks))
	for i, block := range blocks {
		factors := p.preconditioners[i*perBlock : (i+1)*perBlock]
		preconditioned[i], err = preconditionBlock(block, shouldPrecondition, factors)
		if err != nil {
			return nil, err
		}
	}

	merged, err := p.partitioner.mergePartitions(preconditioned)
	if err != nil {
		return nil, err
	}
	return merged.Reshape(p.originalShape)
}

func countTrue(flags []bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

// powerIter estimates the maximum eigenvalue of a symmetric PSD matrix by
// power iteration, starting from a random vector with values in (-1, 1).
func powerIter(matG *tensor.Tensor, errorTolerance float32, numIters int) (float32, *tensor.Tensor, int, error) {
	n := matG.Shape()[0]
	v := tensor.RandSigned(tensor.Shape{n})

	var singularVal float32
	errorVal := float32(1.0)
	iters := 0
	for errorVal > errorTolerance && iters < numIters {
		v.MulScalarInPlace(1.0 / v.Norm())
		matV, err := tensor.MatVec(matG, v)
		if err != nil {
			return 0, nil, 0, err
		}
		sv, err := tensor.Dot(v, matV)
		if err != nil {
			return 0, nil, 0, err
		}
		errorVal = absf(sv - singularVal)
		v = matV
		singularVal = sv
		iters++
	}

	return singularVal, v.MulScalar(1.0 / v.Norm()), iters, nil
}

// matrixPower computes matM^p by repeated squaring for p in {1, 2, 4, 8}.
func matrixPower(matM *tensor.Tensor, p int) (*tensor.Tensor, error) {
	exponent := int(math.Round(math.Log2(float64(p))))
	if exponent == 0 {
		return matM, nil
	}

	pow2, err := tensor.MatMul(matM, matM)
	if err != nil || exponent == 1 {
		return pow2, err
	}

	pow4, err := tensor.MatMul(pow2, pow2)
	if err != nil || exponent == 2 {
		return pow4, err
	}

	if exponent == 3 {
		return tensor.MatMul(pow4, pow4)
	}
	return nil, fmt.Errorf("matrix power %d out of range", p)
}

// computePower computes G^{-1/p} for a PSD matrix G using a coupled Newton
// iteration, see equation 3.2 of "A Schur-Newton Method for the Matrix p-th
// Root and its Inverse" (Guo and Higham, 2006). ridgeEpsilon times the
// largest eigenvalue of G is added to G to keep it positive definite. The
// error can rise before converging, maxErrorRatio bounds the allowed
// increase.
func computePower(matG *tensor.Tensor, p int, iterCount int, errorTolerance, ridgeEpsilon float32) (*tensor.Tensor, error) {
	const maxErrorRatio = 1.2

	shape := matG.Shape()
	if len(shape) == 1 {
		return matG.AddScalar(ridgeEpsilon).Pow(-1.0 / float32(p)), nil
	}

	identity := tensor.Eye(shape[0])
	if shape[0] == 1 {
		return identity, nil
	}

	maxEv, _, _, err := powerIter(matG, 1e-6, 100)
	if err != nil {
		return nil, err
	}
	ridgeEpsilon *= maxEv
	matG.AddInPlace(identity, ridgeEpsilon)

	z := (1.0 + float32(p)) / (2.0 * matG.Norm())

	matRoot := identity.MulScalar(powf(z, 1.0/float32(p)))
	matM := matG.MulScalar(z)

	alpha := -1.0 / float32(p)
	errorVal := matM.Sub(identity).AbsMax()
	for count := 0; errorVal > errorTolerance && count < iterCount; count++ {
		matMI := identity.MulScalar(1.0 - alpha)
		matMI.AddInPlace(matM, alpha)

		powered, err := matrixPower(matMI, p)
		if err != nil {
			return nil, err
		}
		newMatM, err := tensor.MatMul(powered, matM)
		if err != nil {
			return nil, err
		}

		newError := newMatM.Sub(identity).AbsMax()
		if newError > errorVal*maxErrorRatio {
			break
		}

		matRoot, err = tensor.MatMul(matRoot, matMI)
		if err != nil {
			return nil, err
		}
		matM = newMatM
		errorVal = newError
	}

	return matRoot, nil
}

// mergeSmallDims collapses runs of small dims so the partitioner sees
// fewer, larger axes. With maxDim 1024, [1, 2, 512, 1, 2048, 1, 3, 4]
// becomes [1024, 2048, 12].
func mergeSmallDims(shape tensor.Shape, maxDim int) tensor.Shape {
	allOnes := len(shape) > 0
	for _, d := range shape {
		if d != 1 {
			allOnes = false
			break
		}
	}
	if allOnes {
		return tensor.Shape{1}
	}

	var merged tensor.Shape
	product := 1
	for _, d := range shape {
		if product*d <= maxDim {
			product *= d
			continue
		}
		if product > 1 {
			merged = append(merged, product)
		}
		product = d
	}
	if product > 1 {
		merged = append(merged, product)
	}
	return merged
}

func sqrtf(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

func powf(x, y float32) float32 {
	return float32(math.Pow(float64(x), float64(y)))
}
