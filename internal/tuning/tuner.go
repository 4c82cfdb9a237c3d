package tuning

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/data"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/evaluation"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/models"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/preprocessing"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/registry"
)

// ErrAllCandidatesFailed means every sampled candidate failed to fit, so
// the family has nothing to select from.
var ErrAllCandidatesFailed = errors.New("all hyperparameter candidates failed")

// CandidateResult is one searched candidate with its cross-validated
// metric estimates, or a failure record when no fold could be fitted.
type CandidateResult struct {
	Candidate     Candidate
	Metrics       map[string]float64
	Failed        bool
	FailureReason string
}

// TuningResult is the full searched sequence for one family, in candidate
// order. Consumed only by SelectBest.
type TuningResult struct {
	Family     string
	Candidates []CandidateResult
}

// Tuner runs the hyperparameter search for one family under a fixed fold
// assignment. Candidates are evaluated by a bounded worker pool; the
// dataset and folds are shared read-only, every worker owns its own
// scaler and estimator.
type Tuner struct {
	Budget     int
	MaxWorkers int
	Seed       int64
	Log        *zap.Logger

	// NewEstimator builds the estimator for one candidate. Defaults to
	// models.New; swapped out in tests.
	NewEstimator func(models.Kind, map[string]any) (models.Estimator, error)
}

func NewTuner(budget, maxWorkers int, seed int64, log *zap.Logger) *Tuner {
	if budget < 1 {
		budget = 20
	}
	if maxWorkers < 1 {
		maxWorkers = 4
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Tuner{
		Budget:       budget,
		MaxWorkers:   maxWorkers,
		Seed:         seed,
		Log:          log.Named("tuner"),
		NewEstimator: models.New,
	}
}

// Tune searches the family's space. Each candidate is scored by fitting
// the preprocessing transform and the estimator on every fold's training
// rows only and averaging each metric over the held-out folds. Fit
// failures are recorded per candidate and excluded, not fatal; the run
// fails only when every candidate failed or the context is cancelled.
func (t *Tuner) Tune(
	ctx context.Context,
	family registry.ModelFamily,
	ds *data.Dataset,
	folds *evaluation.FoldAssignment,
	prep preprocessing.Spec,
	metricSet []string,
) (*TuningResult, error) {

	familySeed := t.Seed + familyOffset(family.Name)

	candidates, err := SampleCandidates(family.Space, t.Budget, familySeed)
	if err != nil {
		return nil, errors.Wrapf(err, "sampling candidates for family %s", family.Name)
	}

	results := make([]CandidateResult, len(candidates))
	fatal := make([]error, len(candidates))

	workers := t.MaxWorkers
	if workers > len(candidates) {
		workers = len(candidates)
	}

	jobs := make(chan int, len(candidates))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				cand := candidates[i]
				metrics, err := t.evaluateCandidate(ctx, family, cand, ds, folds, prep, metricSet, familySeed+int64(cand.Index))
				switch {
				case err == nil:
					results[i] = CandidateResult{Candidate: cand, Metrics: metrics}
				case errors.Is(err, models.ErrEstimatorFit):
					t.Log.Debug("candidate failed to fit",
						zap.String("family", family.Name),
						zap.Int("candidate", cand.Index),
						zap.Error(err))
					results[i] = CandidateResult{Candidate: cand, Failed: true, FailureReason: err.Error()}
				default:
					fatal[i] = err
				}
			}
		}()
	}

	for i := range candidates {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	for i, err := range fatal {
		if err != nil {
			return nil, errors.Wrapf(err, "family %s candidate %d", family.Name, i)
		}
	}

	viable := 0
	for _, r := range results {
		if !r.Failed {
			viable++
		}
	}
	if viable == 0 {
		return nil, errors.Wrapf(ErrAllCandidatesFailed, "family %s searched %d candidates", family.Name, len(candidates))
	}

	t.Log.Info("search finished",
		zap.String("family", family.Name),
		zap.Int("candidates", len(candidates)),
		zap.Int("viable", viable))

	return &TuningResult{Family: family.Name, Candidates: results}, nil
}

func (t *Tuner) evaluateCandidate(
	ctx context.Context,
	family registry.ModelFamily,
	cand Candidate,
	ds *data.Dataset,
	folds *evaluation.FoldAssignment,
	prep preprocessing.Spec,
	metricSet []string,
	seed int64,
) (map[string]float64, error) {

	x := ds.Features()
	y := ds.Labels()

	sums := make(map[string]float64, len(metricSet))

	for foldIdx, heldOut := range folds.Folds {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		trainIdx := folds.TrainIndices(foldIdx)

		// The transform is re-fitted on this fold's training rows only;
		// reusing one scaler fitted on the full dataset would leak the
		// held-out rows into the normalization statistics.
		scaler := prep.NewScaler()
		if err := scaler.Fit(x, trainIdx); err != nil {
			return nil, errors.Wrapf(err, "fold %d", foldIdx)
		}

		xTrain, err := scaler.Apply(x, trainIdx)
		if err != nil {
			return nil, errors.Wrapf(err, "fold %d", foldIdx)
		}
		xHeld, err := scaler.Apply(x, heldOut)
		if err != nil {
			return nil, errors.Wrapf(err, "fold %d", foldIdx)
		}

		est, err := t.NewEstimator(family.Kind, mergeParams(family.FixedParams, cand.Params, seed))
		if err != nil {
			return nil, err
		}

		if err := est.Fit(xTrain, labelsAt(y, trainIdx)); err != nil {
			return nil, errors.Wrapf(err, "fold %d", foldIdx)
		}

		yHeld := labelsAt(y, heldOut)
		metrics, err := evaluation.Score(metricSet, yHeld, est.Predict(xHeld), probaFloats(est.PredictProba(xHeld)))
		if err != nil {
			return nil, errors.Wrapf(err, "fold %d", foldIdx)
		}

		for name, value := range metrics {
			sums[name] += value
		}
	}

	averaged := make(map[string]float64, len(sums))
	for name, sum := range sums {
		averaged[name] = sum / float64(len(folds.Folds))
	}
	return averaged, nil
}

// mergeParams overlays a candidate on the family's fixed parameters and
// injects the fitting seed. Fixed parameters win over candidate values:
// a family pins exactly what its search must not touch.
func mergeParams(fixed, candidate map[string]any, seed int64) map[string]any {
	merged := make(map[string]any, len(fixed)+len(candidate)+1)
	for name, value := range candidate {
		merged[name] = value
	}
	for name, value := range fixed {
		merged[name] = value
	}
	merged["seed"] = seed
	return merged
}

func labelsAt(y []int, indices []int) []int {
	out := make([]int, len(indices))
	for i, idx := range indices {
		out[i] = y[idx]
	}
	return out
}

func probaFloats(proba []decimal.Decimal) []float64 {
	out := make([]float64, len(proba))
	for i, p := range proba {
		out[i], _ = p.Float64()
	}
	return out
}

// familyOffset keeps per-family candidate sequences independent of the
// order families are dispatched in.
func familyOffset(name string) int64 {
	h := fnv.New32a()
	h.Write([]byte(name))
	return int64(h.Sum32())
}
