package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradientBoostingFitsSeparableData(t *testing.T) {
	x, y := separableSet()

	model := NewGradientBoosting(50, 0.1, 3, 42)
	require.NoError(t, model.Fit(x, y))

	predictions := model.Predict(x)
	correct := 0
	for i, pred := range predictions {
		if pred == y[i] {
			correct++
		}
	}
	assert.GreaterOrEqual(t, float64(correct)/float64(len(y)), 0.95)
}

func TestGradientBoostingProbaBounds(t *testing.T) {
	x, y := separableSet()

	model := NewGradientBoosting(30, 0.2, 2, 42)
	require.NoError(t, model.Fit(x, y))

	for _, p := range model.PredictProba(x) {
		prob, _ := p.Float64()
		assert.GreaterOrEqual(t, prob, 0.0)
		assert.LessOrEqual(t, prob, 1.0)
	}
}

func TestGradientBoostingDeterministicGivenSeed(t *testing.T) {
	x, y := separableSet()

	first := NewGradientBoosting(20, 0.1, 3, 5)
	require.NoError(t, first.Fit(x, y))
	second := NewGradientBoosting(20, 0.1, 3, 5)
	require.NoError(t, second.Fit(x, y))

	firstProba := first.PredictProba(x)
	secondProba := second.PredictProba(x)
	for i := range firstProba {
		assert.True(t, firstProba[i].Equal(secondProba[i]))
	}
}

func TestGradientBoostingSingleClassFails(t *testing.T) {
	x := [][]decimal.Decimal{
		{decimal.NewFromInt(1)},
		{decimal.NewFromInt(2)},
	}
	y := []int{1, 1}

	model := NewGradientBoosting(10, 0.1, 2, 42)
	require.ErrorIs(t, model.Fit(x, y), ErrEstimatorFit)
}

func TestGradientBoostingEmptyTrainingSet(t *testing.T) {
	model := NewGradientBoosting(10, 0.1, 2, 42)
	require.ErrorIs(t, model.Fit(nil, nil), ErrEstimatorFit)
}
