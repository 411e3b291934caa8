package optimizer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vectorrent/pytorch-optimizer/internal/nn"
	"github.com/Vectorrent/pytorch-optimizer/internal/optimizer"
)

func TestRegistry_LoadOptimizer(t *testing.T) {
	factory, err := optimizer.LoadOptimizer("AdamW")
	require.NoError(t, err, "lookup should be case-insensitive")
	require.NotNil(t, factory)

	_, err = optimizer.LoadOptimizer("nope")
	require.ErrorIs(t, err, optimizer.ErrUnknownOptimizer)
}

func TestRegistry_CreateAll(t *testing.T) {
	for _, name := range optimizer.Supported() {
		t.Run(name, func(t *testing.T) {
			params := []*nn.Parameter{makeParam(t, "w", 1.0, 2.0)}
			opt, err := optimizer.CreateOptimizer(params, name, optimizer.Config{}, false)
			require.NoError(t, err)

			setGrad(t, params[0], 0.1, -0.1)
			require.NoError(t, opt.Step())
			opt.ZeroGrad()
			assert.Nil(t, params[0].Grad())
		})
	}
}

func TestRegistry_WithLookahead(t *testing.T) {
	params := []*nn.Parameter{makeParam(t, "w", 1.0)}
	opt, err := optimizer.CreateOptimizer(params, "sgd", optimizer.Config{LR: 0.1}, true)
	require.NoError(t, err)

	_, ok := opt.(*optimizer.Lookahead)
	assert.True(t, ok, "expected a Lookahead wrapper")
}

func TestRegistry_SupportedSorted(t *testing.T) {
	names := optimizer.Supported()
	require.NotEmpty(t, names)
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i], "names should be sorted and unique")
	}
	assert.Contains(t, names, "adamw")
	assert.Contains(t, names, "shampoo")
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "optimizer.yaml")
	raw := []byte("lr: 0.01\nbetas: [0.9, 0.95]\nweight_decay: 0.1\nnesterov: true\nlookahead_k: 10\n")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	config, err := optimizer.LoadConfig(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.01, config.LR, 1e-9)
	assert.Equal(t, [2]float32{0.9, 0.95}, config.Betas)
	assert.InDelta(t, 0.1, config.WeightDecay, 1e-9)
	assert.True(t, config.Nesterov)
	assert.Equal(t, 10, config.LookaheadK)

	_, err = optimizer.LoadConfig(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestRegistry_ShampooGraftType(t *testing.T) {
	params := []*nn.Parameter{makeParam(t, "w", 1.0, 2.0)}

	opt, err := optimizer.CreateOptimizer(params, "shampoo", optimizer.Config{
		GraftType: "AdaGrad",
	}, false)
	require.NoError(t, err, "graft name lookup should be case-insensitive")

	setGrad(t, params[0], 0.1, -0.1)
	require.NoError(t, opt.Step())

	_, err = optimizer.CreateOptimizer(params, "shampoo", optimizer.Config{
		GraftType: "newton",
	}, false)
	require.ErrorIs(t, err, optimizer.ErrInvalidHyperparameter)
}
