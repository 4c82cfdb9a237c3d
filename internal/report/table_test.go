package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/registry"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/tuning"
)

func sampleEntries() []tuning.FinalMetrics {
	return []tuning.FinalMetrics{
		{
			Family:  "random_forest",
			Params:  map[string]any{"n_trees": 200},
			Metrics: map[string]float64{"auc": 0.83, "accuracy": 0.78},
		},
		{
			Family:  "lasso_logistic",
			Params:  map[string]any{"penalty": 0.01},
			Metrics: map[string]float64{"auc": 0.86, "accuracy": 0.80},
		},
		{
			Family:  "gradient_boosting",
			Params:  map[string]any{"n_rounds": 120},
			Metrics: map[string]float64{"auc": 0.85, "accuracy": 0.79},
		},
	}
}

func TestAggregateSortsByFamilyName(t *testing.T) {
	table, err := Aggregate(sampleEntries())
	require.NoError(t, err)
	require.Len(t, table.Entries, 3)

	assert.Equal(t, "gradient_boosting", table.Entries[0].Family)
	assert.Equal(t, "lasso_logistic", table.Entries[1].Family)
	assert.Equal(t, "random_forest", table.Entries[2].Family)
}

func TestAggregateOrderIndependent(t *testing.T) {
	entries := sampleEntries()
	reversed := []tuning.FinalMetrics{entries[2], entries[1], entries[0]}

	first, err := Aggregate(entries)
	require.NoError(t, err)
	second, err := Aggregate(reversed)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAggregateRejectsDuplicateFamily(t *testing.T) {
	entries := sampleEntries()
	entries = append(entries, tuning.FinalMetrics{Family: "random_forest"})

	_, err := Aggregate(entries)
	require.Error(t, err)
	assert.True(t, errors.Is(err, registry.ErrDuplicateFamily))
}

func TestMetricNamesUnionSorted(t *testing.T) {
	table, err := Aggregate([]tuning.FinalMetrics{
		{Family: "a", Metrics: map[string]float64{"auc": 0.8}},
		{Family: "b", Metrics: map[string]float64{"sensitivity": 0.7, "accuracy": 0.75}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"accuracy", "auc", "sensitivity"}, table.MetricNames())
}

func TestPrintListsEveryFamily(t *testing.T) {
	table, err := Aggregate(sampleEntries())
	require.NoError(t, err)

	var buf bytes.Buffer
	table.Print(&buf)

	out := buf.String()
	assert.Contains(t, out, "lasso_logistic")
	assert.Contains(t, out, "random_forest")
	assert.Contains(t, out, "gradient_boosting")
	assert.Contains(t, out, "0.8600")
}

func TestPrintMarksMissingMetric(t *testing.T) {
	table, err := Aggregate([]tuning.FinalMetrics{
		{Family: "a", Metrics: map[string]float64{"auc": 0.8}},
		{Family: "b", Metrics: map[string]float64{"accuracy": 0.7}},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	table.Print(&buf)

	assert.Contains(t, buf.String(), "-")
}

func TestWriteCSV(t *testing.T) {
	table, err := Aggregate(sampleEntries())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, table.WriteCSV(&buf))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)

	// Header plus one row per family per metric.
	require.Len(t, records, 1+3*2)
	assert.Equal(t, []string{"family", "metric", "value"}, records[0])
	assert.Equal(t, []string{"gradient_boosting", "accuracy", "0.790000"}, records[1])
	assert.Equal(t, []string{"lasso_logistic", "auc", "0.860000"}, records[4])
}

func TestExportCSVWritesFile(t *testing.T) {
	table, err := Aggregate(sampleEntries())
	require.NoError(t, err)

	path := t.TempDir() + "/results.csv"
	require.NoError(t, table.ExportCSV(path))

	var buf bytes.Buffer
	require.NoError(t, table.WriteCSV(&buf))

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, buf.String(), string(written))
}
