package experiment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/data"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/evaluation"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/models"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/registry"
)

// separableDataset builds 60 balanced records split cleanly on the first
// feature, enough for 5 folds with room to spare.
func separableDataset() *data.Dataset {
	var x [][]decimal.Decimal
	var y []int

	for i := 0; i < 30; i++ {
		x = append(x, []decimal.Decimal{
			decimal.NewFromFloat(-3.0 - 0.1*float64(i%5)),
			decimal.NewFromFloat(0.03 * float64(i)),
		})
		y = append(y, 0)

		x = append(x, []decimal.Decimal{
			decimal.NewFromFloat(3.0 + 0.1*float64(i%5)),
			decimal.NewFromFloat(-0.03 * float64(i)),
		})
		y = append(y, 1)
	}

	return data.NewDataset([]string{"glucose", "age"}, []string{"neg", "pos"}, x, y)
}

func smallConfig() *Config {
	config := DefaultConfig()
	config.Experiment.SearchBudget = 2
	config.Experiment.MaxWorkers = 2
	return config
}

func logisticOnlyRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	require.NoError(t, reg.Register(registry.ModelFamily{
		Name:  "lasso_logistic",
		Kind:  models.KindL1Logistic,
		Space: registry.SearchSpace{"penalty": registry.Range{Min: 1e-3, Max: 1e-1, LogScale: true}},
	}))
	return reg
}

func TestRunSingleFamily(t *testing.T) {
	runner := NewRunner(smallConfig(), logisticOnlyRegistry(t), nil)

	table, err := runner.Run(context.Background(), separableDataset())
	require.NoError(t, err)
	require.Len(t, table.Entries, 1)

	entry := table.Entries[0]
	assert.Equal(t, "lasso_logistic", entry.Family)
	assert.Contains(t, entry.Params, "penalty")

	for _, name := range evaluation.DefaultMetricSet() {
		value, ok := entry.Metrics[name]
		require.Truef(t, ok, "metric %s missing", name)
		assert.GreaterOrEqual(t, value, 0.0)
		assert.LessOrEqual(t, value, 1.0)
	}

	statuses := runner.FamilyStatuses()
	assert.Equal(t, StatusCompleted, statuses["lasso_logistic"])
}

func TestRunIsolatesFailedFamily(t *testing.T) {
	reg := logisticOnlyRegistry(t)
	require.NoError(t, reg.Register(registry.ModelFamily{
		Name:  "broken_family",
		Kind:  models.Kind("svm"),
		Space: registry.SearchSpace{"penalty": registry.Range{Min: 0.1, Max: 1}},
	}))

	runner := NewRunner(smallConfig(), reg, nil)

	table, err := runner.Run(context.Background(), separableDataset())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken_family")

	// The healthy sibling still lands in the partial table.
	require.NotNil(t, table)
	require.Len(t, table.Entries, 1)
	assert.Equal(t, "lasso_logistic", table.Entries[0].Family)

	statuses := runner.FamilyStatuses()
	assert.Equal(t, StatusCompleted, statuses["lasso_logistic"])
	assert.Equal(t, StatusFailed, statuses["broken_family"])
}

func TestRunDeterministicGivenSeed(t *testing.T) {
	run := func() map[string]float64 {
		runner := NewRunner(smallConfig(), logisticOnlyRegistry(t), nil)
		table, err := runner.Run(context.Background(), separableDataset())
		require.NoError(t, err)
		return table.Entries[0].Metrics
	}

	assert.Equal(t, run(), run())
}

func TestRunRejectsSingleClassDataset(t *testing.T) {
	var x [][]decimal.Decimal
	var y []int
	for i := 0; i < 20; i++ {
		x = append(x, []decimal.Decimal{decimal.NewFromInt(int64(i))})
		y = append(y, 0)
	}
	ds := data.NewDataset([]string{"f0"}, []string{"neg"}, x, y)

	runner := NewRunner(smallConfig(), logisticOnlyRegistry(t), nil)
	_, err := runner.Run(context.Background(), ds)
	require.Error(t, err)
}

func TestRunTooFewRecordsForFolds(t *testing.T) {
	x := [][]decimal.Decimal{
		{decimal.NewFromInt(1)},
		{decimal.NewFromInt(2)},
		{decimal.NewFromInt(3)},
		{decimal.NewFromInt(4)},
	}
	y := []int{0, 0, 1, 1}
	ds := data.NewDataset([]string{"f0"}, []string{"neg", "pos"}, x, y)

	runner := NewRunner(smallConfig(), logisticOnlyRegistry(t), nil)
	_, err := runner.Run(context.Background(), ds)
	require.Error(t, err)
}

func TestCancelFamilyNotRunning(t *testing.T) {
	runner := NewRunner(smallConfig(), logisticOnlyRegistry(t), nil)
	require.Error(t, runner.CancelFamily("lasso_logistic"))
}
