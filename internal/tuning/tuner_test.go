package tuning

import (
	"context"
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/data"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/evaluation"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/models"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/preprocessing"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/registry"
)

// syntheticDataset builds 100 records with 2 predictors and a balanced
// label where the classes are well separated on both features.
func syntheticDataset() *data.Dataset {
	var x [][]decimal.Decimal
	var y []int

	for i := 0; i < 50; i++ {
		x = append(x, []decimal.Decimal{
			decimal.NewFromFloat(-2.0 - 0.05*float64(i%10)),
			decimal.NewFromFloat(-1.0 + 0.02*float64(i)),
		})
		y = append(y, 0)

		x = append(x, []decimal.Decimal{
			decimal.NewFromFloat(2.0 + 0.05*float64(i%10)),
			decimal.NewFromFloat(1.0 + 0.02*float64(i)),
		})
		y = append(y, 1)
	}

	return data.NewDataset([]string{"glucose", "bmi"}, []string{"neg", "pos"}, x, y)
}

func logisticFamily() registry.ModelFamily {
	return registry.ModelFamily{
		Name:  "lasso_logistic",
		Kind:  models.KindL1Logistic,
		Space: registry.SearchSpace{"penalty": registry.Range{Min: 1e-3, Max: 1e-1, LogScale: true}},
	}
}

func TestTuneSingleCandidateEndToEnd(t *testing.T) {
	ds := syntheticDataset()

	folds, err := evaluation.MakeFolds(ds.Labels(), 5, 42)
	require.NoError(t, err)
	split, err := evaluation.MakeTrainTestSplit(ds.Labels(), 0.8, 42)
	require.NoError(t, err)

	family := logisticFamily()
	tuner := NewTuner(1, 2, 42, nil)

	result, err := tuner.Tune(context.Background(), family, ds, folds, preprocessing.DefaultSpec(), evaluation.DefaultMetricSet())
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	require.False(t, result.Candidates[0].Failed)

	auc := result.Candidates[0].Metrics[evaluation.MetricAUC]
	assert.GreaterOrEqual(t, auc, 0.0)
	assert.LessOrEqual(t, auc, 1.0)

	best, err := SelectBest(result, evaluation.MetricAUC)
	require.NoError(t, err)
	assert.Equal(t, 0, best.Index)

	finals, err := EvaluateFinal(family, best, ds, split, preprocessing.DefaultSpec(), evaluation.DefaultMetricSet(), 42)
	require.NoError(t, err)
	assert.Equal(t, "lasso_logistic", finals.Family)
	assert.GreaterOrEqual(t, finals.Metrics[evaluation.MetricAUC], 0.0)
	assert.LessOrEqual(t, finals.Metrics[evaluation.MetricAUC], 1.0)

	// Cleanly separated classes: the refit model should rank well.
	assert.Greater(t, finals.Metrics[evaluation.MetricAUC], 0.9)
}

func TestTuneDeterministicGivenSeed(t *testing.T) {
	ds := syntheticDataset()

	folds, err := evaluation.MakeFolds(ds.Labels(), 5, 42)
	require.NoError(t, err)

	run := func() *TuningResult {
		tuner := NewTuner(4, 3, 42, nil)
		result, err := tuner.Tune(context.Background(), logisticFamily(), ds, folds, preprocessing.DefaultSpec(), evaluation.DefaultMetricSet())
		require.NoError(t, err)
		return result
	}

	assert.Equal(t, run(), run())
}

type stubEstimator struct {
	models.BaseModel
	fail bool
}

func (s *stubEstimator) Fit(x [][]decimal.Decimal, y []int) error {
	if s.fail {
		return errors.Wrap(models.ErrEstimatorFit, "stub refused")
	}
	return nil
}

func (s *stubEstimator) Predict(x [][]decimal.Decimal) []int {
	return make([]int, len(x))
}

func (s *stubEstimator) PredictProba(x [][]decimal.Decimal) []decimal.Decimal {
	proba := make([]decimal.Decimal, len(x))
	for i := range proba {
		proba[i] = decimal.NewFromFloat(0.5)
	}
	return proba
}

func (s *stubEstimator) Reset() {}

func TestTuneRecordsFailedCandidates(t *testing.T) {
	ds := syntheticDataset()

	folds, err := evaluation.MakeFolds(ds.Labels(), 5, 42)
	require.NoError(t, err)

	tuner := NewTuner(10, 2, 42, nil)
	// Candidate i carries seed familySeed+i, so parity alternates and
	// exactly half the candidates fail.
	tuner.NewEstimator = func(kind models.Kind, params map[string]any) (models.Estimator, error) {
		seed := params["seed"].(int64)
		return &stubEstimator{fail: seed%2 == 0}, nil
	}

	result, err := tuner.Tune(context.Background(), logisticFamily(), ds, folds, preprocessing.DefaultSpec(), evaluation.DefaultMetricSet())
	require.NoError(t, err)
	require.Len(t, result.Candidates, 10)

	failed := 0
	for _, cr := range result.Candidates {
		if cr.Failed {
			failed++
			assert.Nil(t, cr.Metrics)
			assert.NotEmpty(t, cr.FailureReason)
		} else {
			assert.Contains(t, cr.Metrics, evaluation.MetricAUC)
		}
	}
	assert.Equal(t, 5, failed)
}

func TestTuneAllCandidatesFailed(t *testing.T) {
	ds := syntheticDataset()

	folds, err := evaluation.MakeFolds(ds.Labels(), 5, 42)
	require.NoError(t, err)

	tuner := NewTuner(5, 2, 42, nil)
	tuner.NewEstimator = func(kind models.Kind, params map[string]any) (models.Estimator, error) {
		return &stubEstimator{fail: true}, nil
	}

	_, err = tuner.Tune(context.Background(), logisticFamily(), ds, folds, preprocessing.DefaultSpec(), evaluation.DefaultMetricSet())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllCandidatesFailed))
}

func TestTuneHonorsCancellation(t *testing.T) {
	ds := syntheticDataset()

	folds, err := evaluation.MakeFolds(ds.Labels(), 5, 42)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tuner := NewTuner(5, 2, 42, nil)
	_, err = tuner.Tune(ctx, logisticFamily(), ds, folds, preprocessing.DefaultSpec(), evaluation.DefaultMetricSet())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestMergeParamsFixedWins(t *testing.T) {
	merged := mergeParams(
		map[string]any{"min_samples_split": 2},
		map[string]any{"min_samples_split": 10, "max_depth": 4},
		7,
	)

	assert.Equal(t, 2, merged["min_samples_split"])
	assert.Equal(t, 4, merged["max_depth"])
	assert.Equal(t, int64(7), merged["seed"])
}

func TestFamilyOffsetStable(t *testing.T) {
	assert.Equal(t, familyOffset("random_forest"), familyOffset("random_forest"))
	assert.NotEqual(t, familyOffset("random_forest"), familyOffset("gradient_boosting"))
}

func ExampleSelectBest() {
	result := &TuningResult{
		Family: "ridge_logistic",
		Candidates: []CandidateResult{
			{Candidate: Candidate{Index: 0}, Metrics: map[string]float64{"auc": 0.81}},
			{Candidate: Candidate{Index: 1}, Metrics: map[string]float64{"auc": 0.86}},
		},
	}

	best, _ := SelectBest(result, "auc")
	fmt.Println(best.Index)
	// Output: 1
}
