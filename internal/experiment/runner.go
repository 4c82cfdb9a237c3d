package experiment

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/data"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/evaluation"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/registry"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/report"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/tuning"
)

type FamilyStatus string

const (
	StatusPending   FamilyStatus = "pending"
	StatusRunning   FamilyStatus = "running"
	StatusCompleted FamilyStatus = "completed"
	StatusFailed    FamilyStatus = "failed"
	StatusCancelled FamilyStatus = "cancelled"
)

// Runner drives one comparison run: derive folds and the train/test split
// once, then tune, select, and refit every registered family under a
// bounded worker pool. Families are independent: each owns a cancel
// function and one family's failure never aborts its siblings.
type Runner struct {
	Config   *Config
	Registry *registry.Registry
	Log      *zap.Logger

	mu      sync.Mutex
	status  map[string]FamilyStatus
	cancels map[string]context.CancelFunc
}

func NewRunner(config *Config, reg *registry.Registry, log *zap.Logger) *Runner {
	if config == nil {
		config = DefaultConfig()
	}
	if reg == nil {
		reg = registry.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Runner{
		Config:   config,
		Registry: reg,
		Log:      log.Named("experiment"),
		status:   make(map[string]FamilyStatus),
		cancels:  make(map[string]context.CancelFunc),
	}
}

type familyOutcome struct {
	family  string
	metrics tuning.FinalMetrics
	err     error
}

// Run executes the whole pipeline on an already-loaded dataset and
// returns the aggregated result table. When some families fail, the
// partial table is returned together with an error naming them, so a
// partial result is never mistaken for a complete one.
func (r *Runner) Run(ctx context.Context, ds *data.Dataset) (*report.ResultTable, error) {
	exp := r.Config.Experiment

	if err := data.NewValidator().Validate(ds); err != nil {
		return nil, err
	}

	folds, err := evaluation.MakeFolds(ds.Labels(), exp.Folds, exp.Seed)
	if err != nil {
		return nil, err
	}

	split, err := evaluation.MakeTrainTestSplit(ds.Labels(), exp.TrainFraction, exp.Seed)
	if err != nil {
		return nil, err
	}

	families := r.Registry.Families()
	for _, family := range families {
		r.setStatus(family.Name, StatusPending)
	}

	r.Log.Info("starting comparison run",
		zap.Int("records", ds.Len()),
		zap.Int("features", ds.NumFeatures()),
		zap.Int("families", len(families)),
		zap.Int("folds", exp.Folds),
		zap.Int("search_budget", exp.SearchBudget),
		zap.Int64("seed", exp.Seed))

	outcomes := make([]familyOutcome, len(families))

	workers := exp.MaxWorkers
	if workers > len(families) {
		workers = len(families)
	}

	jobs := make(chan int, len(families))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = r.runFamily(ctx, families[i], ds, folds, split)
			}
		}()
	}

	for i := range families {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	var finals []tuning.FinalMetrics
	var failed []string
	var firstErr error

	for _, outcome := range outcomes {
		if outcome.err != nil {
			failed = append(failed, outcome.family)
			if firstErr == nil {
				firstErr = outcome.err
			}
			r.Log.Error("family failed", zap.String("family", outcome.family), zap.Error(outcome.err))
			continue
		}
		finals = append(finals, outcome.metrics)
	}

	table, err := report.Aggregate(finals)
	if err != nil {
		return nil, err
	}

	if len(failed) > 0 {
		return table, errors.Wrapf(firstErr, "run incomplete, failed families: %s", strings.Join(failed, ", "))
	}

	return table, nil
}

func (r *Runner) runFamily(
	ctx context.Context,
	family registry.ModelFamily,
	ds *data.Dataset,
	folds *evaluation.FoldAssignment,
	split *evaluation.TrainTestSplit,
) familyOutcome {

	exp := r.Config.Experiment

	famCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	r.registerCancel(family.Name, cancel)
	defer r.unregisterCancel(family.Name)

	r.setStatus(family.Name, StatusRunning)
	start := time.Now()

	tuner := tuning.NewTuner(exp.SearchBudget, exp.MaxWorkers, exp.Seed, r.Log)

	result, err := tuner.Tune(famCtx, family, ds, folds, exp.Preprocessing, exp.Metrics)
	if err != nil {
		return r.finishFamily(family.Name, famCtx, err)
	}

	best, err := tuning.SelectBest(result, exp.TargetMetric)
	if err != nil {
		return r.finishFamily(family.Name, famCtx, err)
	}

	finals, err := tuning.EvaluateFinal(family, best, ds, split, exp.Preprocessing, exp.Metrics, exp.Seed)
	if err != nil {
		return r.finishFamily(family.Name, famCtx, err)
	}

	r.setStatus(family.Name, StatusCompleted)
	r.Log.Info("family completed",
		zap.String("family", family.Name),
		zap.Int("selected_candidate", best.Index),
		zap.Duration("elapsed", time.Since(start)))

	return familyOutcome{family: family.Name, metrics: finals}
}

func (r *Runner) finishFamily(name string, ctx context.Context, err error) familyOutcome {
	if ctx.Err() != nil {
		r.setStatus(name, StatusCancelled)
		return familyOutcome{family: name, err: errors.Wrap(ctx.Err(), "family cancelled")}
	}
	r.setStatus(name, StatusFailed)
	return familyOutcome{family: name, err: err}
}

// CancelFamily stops one family's tuning without touching its siblings.
func (r *Runner) CancelFamily(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cancel, ok := r.cancels[name]
	if !ok {
		return errors.Newf("family %s is not running", name)
	}
	cancel()
	return nil
}

// FamilyStatuses returns a snapshot of each family's state.
func (r *Runner) FamilyStatuses() map[string]FamilyStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make(map[string]FamilyStatus, len(r.status))
	for name, status := range r.status {
		snapshot[name] = status
	}
	return snapshot
}

func (r *Runner) setStatus(name string, status FamilyStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[name] = status
}

func (r *Runner) registerCancel(name string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels[name] = cancel
}

func (r *Runner) unregisterCancel(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cancels, name)
}
