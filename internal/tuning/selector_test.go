package tuning

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultWith(aucs ...float64) *TuningResult {
	result := &TuningResult{Family: "test_family"}
	for i, auc := range aucs {
		result.Candidates = append(result.Candidates, CandidateResult{
			Candidate: Candidate{Index: i, Params: map[string]any{"penalty": float64(i)}},
			Metrics:   map[string]float64{"auc": auc},
		})
	}
	return result
}

func TestSelectBestUniqueMaximum(t *testing.T) {
	best, err := SelectBest(resultWith(0.6, 0.9, 0.7), "auc")
	require.NoError(t, err)
	assert.Equal(t, 1, best.Index)
}

func TestSelectBestTieBreaksToLowestIndex(t *testing.T) {
	best, err := SelectBest(resultWith(0.7, 0.9, 0.9, 0.8), "auc")
	require.NoError(t, err)
	assert.Equal(t, 1, best.Index)
}

func TestSelectBestSkipsFailedCandidates(t *testing.T) {
	result := resultWith(0.6, 0.9, 0.7)
	result.Candidates[1].Failed = true
	result.Candidates[1].Metrics = nil

	best, err := SelectBest(result, "auc")
	require.NoError(t, err)
	assert.Equal(t, 2, best.Index)
}

func TestSelectBestAllFailed(t *testing.T) {
	result := resultWith(0.6, 0.7)
	for i := range result.Candidates {
		result.Candidates[i].Failed = true
		result.Candidates[i].Metrics = nil
	}

	_, err := SelectBest(result, "auc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoViableCandidate))
}

func TestSelectBestMissingMetric(t *testing.T) {
	_, err := SelectBest(resultWith(0.6), "accuracy")
	require.Error(t, err)
}
