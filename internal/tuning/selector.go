package tuning

import (
	"github.com/cockroachdb/errors"
)

// ErrNoViableCandidate means selection found no non-failed candidate to
// choose from.
var ErrNoViableCandidate = errors.New("no viable candidate to select")

// SelectBest picks the non-failed candidate with the maximum value of the
// target metric. Ties go to the lowest candidate index, so selection is
// deterministic regardless of evaluation order.
func SelectBest(result *TuningResult, metricName string) (Candidate, error) {
	bestIdx := -1
	bestValue := 0.0

	for i, cr := range result.Candidates {
		if cr.Failed {
			continue
		}
		value, ok := cr.Metrics[metricName]
		if !ok {
			return Candidate{}, errors.Newf("candidate %d of family %s has no %q estimate", cr.Candidate.Index, result.Family, metricName)
		}
		if bestIdx == -1 || value > bestValue {
			bestIdx = i
			bestValue = value
		}
	}

	if bestIdx == -1 {
		return Candidate{}, errors.Wrapf(ErrNoViableCandidate, "family %s", result.Family)
	}

	return result.Candidates[bestIdx].Candidate, nil
}
