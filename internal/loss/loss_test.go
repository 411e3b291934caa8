package loss_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vectorrent/pytorch-optimizer/internal/loss"
	"github.com/Vectorrent/pytorch-optimizer/internal/tensor"
)

func fromValues(t *testing.T, values ...float32) *tensor.Tensor {
	t.Helper()
	out, err := tensor.FromSlice(values, tensor.Shape{len(values)})
	require.NoError(t, err)
	return out
}

func TestSoftF1Loss_PerfectPrediction(t *testing.T) {
	l := loss.NewSoftF1Loss(0, 0)

	target := fromValues(t, 1, 0, 1, 0)
	got, err := l.Forward(target.Clone(), target)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got, 1e-4, "perfect prediction should have near-zero loss")
}

func TestSoftF1Loss_WorstPrediction(t *testing.T) {
	l := loss.NewSoftF1Loss(0, 0)

	pred := fromValues(t, 0, 0)
	target := fromValues(t, 1, 1)
	got, err := l.Forward(pred, target)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-4, "all-zero prediction on positive targets")
}

func TestSoftF1Loss_ShapeMismatch(t *testing.T) {
	l := loss.NewSoftF1Loss(0, 0)

	_, err := l.Forward(fromValues(t, 1, 0), fromValues(t, 1, 0, 1))
	require.ErrorIs(t, err, loss.ErrShapeMismatch)
}

func TestFocalLoss_EasyVersusHard(t *testing.T) {
	l := loss.NewFocalLoss(0, 0)

	// A confident correct logit contributes far less than a confident
	// wrong one.
	easy, err := l.Forward(fromValues(t, 5.0), fromValues(t, 1.0))
	require.NoError(t, err)
	hard, err := l.Forward(fromValues(t, -5.0), fromValues(t, 1.0))
	require.NoError(t, err)
	assert.Less(t, easy, hard)
	assert.Less(t, easy, float32(1e-4))
}

func TestDiceLoss_Overlap(t *testing.T) {
	l := loss.NewDiceLoss(0)

	perfect, err := l.Forward(fromValues(t, 1, 0, 1), fromValues(t, 1, 0, 1))
	require.NoError(t, err)
	assert.InDelta(t, 0.0, perfect, 1e-5)

	disjoint, err := l.Forward(fromValues(t, 1, 0), fromValues(t, 0, 1))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, disjoint, 1e-5)
}

func TestCosineSimilarity(t *testing.T) {
	same, err := loss.CosineSimilarity(fromValues(t, 1, 0), fromValues(t, 2, 0), 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, same, 1e-5)

	orthogonal, err := loss.CosineSimilarity(fromValues(t, 1, 0), fromValues(t, 0, 1), 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, orthogonal, 1e-5)
}

func TestCosineLoss(t *testing.T) {
	l := loss.NewCosineLoss(0)

	opposite, err := l.Forward(fromValues(t, 1, 0), fromValues(t, -1, 0))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, opposite, 1e-5)
}

func TestSupported(t *testing.T) {
	names := loss.Supported()
	require.NotEmpty(t, names)
	assert.Contains(t, names, "soft_f1")
	assert.Contains(t, names, "focal")
}
