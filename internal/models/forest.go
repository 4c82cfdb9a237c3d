package models

import (
	"math"
	"math/rand"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

// RandomForest bags seeded decision trees over bootstrap resamples with
// sqrt(p) feature subsampling. Tree i always trains with seed Seed+i, so a
// refit with the same hyperparameters reproduces the same ensemble.
type RandomForest struct {
	BaseModel
	NTrees          int
	MaxDepth        int
	MinSamplesSplit int
	MaxFeatures     int
	Seed            int64
	Parallel        bool
	MaxWorkers      int

	trees          []*DecisionTree
	featureIndices [][]int
}

func NewRandomForest(nTrees, maxDepth, minSamplesSplit int, seed int64) *RandomForest {
	if nTrees <= 0 {
		nTrees = 100
	}
	if maxDepth <= 0 {
		maxDepth = 10
	}
	if minSamplesSplit <= 1 {
		minSamplesSplit = 2
	}

	return &RandomForest{
		NTrees:          nTrees,
		MaxDepth:        maxDepth,
		MinSamplesSplit: minSamplesSplit,
		Seed:            seed,
		Parallel:        true,
		MaxWorkers:      4,
		BaseModel: BaseModel{
			ModelName: "RandomForest",
			ModelParams: map[string]any{
				"n_trees":           nTrees,
				"max_depth":         maxDepth,
				"min_samples_split": minSamplesSplit,
			},
		},
	}
}

func (rf *RandomForest) Fit(x [][]decimal.Decimal, y []int) error {
	if len(x) == 0 {
		return errors.Wrap(ErrEstimatorFit, "empty training set")
	}

	nFeatures := len(x[0])
	rf.MaxFeatures = int(math.Sqrt(float64(nFeatures)))
	if rf.MaxFeatures < 1 {
		rf.MaxFeatures = 1
	}

	rf.trees = make([]*DecisionTree, rf.NTrees)
	rf.featureIndices = make([][]int, rf.NTrees)

	if rf.Parallel {
		return rf.trainParallel(x, y)
	}
	return rf.trainSequential(x, y)
}

func (rf *RandomForest) trainParallel(x [][]decimal.Decimal, y []int) error {
	var wg sync.WaitGroup
	errs := make([]error, rf.NTrees)

	workers := rf.MaxWorkers
	if workers > rf.NTrees {
		workers = rf.NTrees
	}

	jobs := make(chan int, rf.NTrees)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				tree, features, err := rf.trainSingleTree(x, y, rf.Seed+int64(i))
				rf.trees[i] = tree
				rf.featureIndices[i] = features
				errs[i] = err
			}
		}()
	}

	for i := 0; i < rf.NTrees; i++ {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return errors.Wrapf(err, "tree %d training failed", i)
		}
	}
	return nil
}

func (rf *RandomForest) trainSequential(x [][]decimal.Decimal, y []int) error {
	for i := 0; i < rf.NTrees; i++ {
		tree, features, err := rf.trainSingleTree(x, y, rf.Seed+int64(i))
		if err != nil {
			return err
		}
		rf.trees[i] = tree
		rf.featureIndices[i] = features
	}
	return nil
}

func (rf *RandomForest) trainSingleTree(x [][]decimal.Decimal, y []int, seed int64) (*DecisionTree, []int, error) {
	rng := rand.New(rand.NewSource(seed))

	n := len(x)
	xBoot := make([][]decimal.Decimal, n)
	yBoot := make([]int, n)
	for i := 0; i < n; i++ {
		idx := rng.Intn(n)
		xBoot[i] = x[idx]
		yBoot[i] = y[idx]
	}

	features := rf.selectRandomFeatures(len(x[0]), rng)

	xSelected := make([][]decimal.Decimal, n)
	for i := range xBoot {
		xSelected[i] = make([]decimal.Decimal, len(features))
		for j, feat := range features {
			xSelected[i][j] = xBoot[i][feat]
		}
	}

	tree := NewDecisionTree(rf.MaxDepth, rf.MinSamplesSplit)
	err := tree.Fit(xSelected, yBoot)
	return tree, features, err
}

func (rf *RandomForest) selectRandomFeatures(nFeatures int, rng *rand.Rand) []int {
	features := make([]int, nFeatures)
	for i := range features {
		features[i] = i
	}

	for i := 0; i < rf.MaxFeatures && i < nFeatures; i++ {
		j := i + rng.Intn(nFeatures-i)
		features[i], features[j] = features[j], features[i]
	}

	return features[:rf.MaxFeatures]
}

func (rf *RandomForest) Predict(x [][]decimal.Decimal) []int {
	predictions := make([]int, len(x))
	for i, p := range rf.PredictProba(x) {
		prob, _ := p.Float64()
		if prob >= 0.5 {
			predictions[i] = 1
		}
	}
	return predictions
}

// PredictProba averages the per-tree leaf probabilities, which behaves
// better for ranking than raw vote fractions on small ensembles.
func (rf *RandomForest) PredictProba(x [][]decimal.Decimal) []decimal.Decimal {
	proba := make([]decimal.Decimal, len(x))
	nTrees := decimal.NewFromInt(int64(rf.NTrees))

	for i, sample := range x {
		sum := decimal.Zero
		for j, tree := range rf.trees {
			selected := make([]decimal.Decimal, len(rf.featureIndices[j]))
			for k, feat := range rf.featureIndices[j] {
				selected[k] = sample[feat]
			}
			sum = sum.Add(tree.PredictProba([][]decimal.Decimal{selected})[0])
		}
		proba[i] = sum.Div(nTrees)
	}

	return proba
}

func (rf *RandomForest) Reset() {
	rf.trees = nil
	rf.featureIndices = nil
}
