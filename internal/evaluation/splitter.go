package evaluation

import (
	"math"
	"math/rand"
	"sort"

	"github.com/cockroachdb/errors"
)

// ErrInsufficientData means a label class is too small to stratify over
// the requested number of folds or split.
var ErrInsufficientData = errors.New("insufficient data for stratification")

// FoldAssignment partitions dataset indices into k disjoint groups, each
// approximately preserving the overall class balance. Derived once per run
// and shared read-only by every model family.
type FoldAssignment struct {
	Folds [][]int
	Seed  int64
}

// TrainTestSplit is a single stratified partition of dataset indices.
type TrainTestSplit struct {
	Train []int
	Test  []int
}

// MakeFolds builds a stratified k-fold assignment over the label vector.
// Records are grouped by class, each group is shuffled with the seeded rng
// and dealt round-robin across folds, then the groups are merged. The same
// seed and label order always produce the identical partition.
func MakeFolds(y []int, k int, seed int64) (*FoldAssignment, error) {
	if k < 2 {
		return nil, errors.Newf("fold count must be at least 2, got %d", k)
	}

	rng := rand.New(rand.NewSource(seed))
	folds := make([][]int, k)

	for _, indices := range classIndices(y) {
		if len(indices) < k {
			return nil, errors.Wrapf(ErrInsufficientData, "class %d has %d records, need at least %d for %d folds", y[indices[0]], len(indices), k, k)
		}

		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		for i, idx := range indices {
			fold := i % k
			folds[fold] = append(folds[fold], idx)
		}
	}

	for _, fold := range folds {
		sort.Ints(fold)
	}

	return &FoldAssignment{Folds: folds, Seed: seed}, nil
}

// TrainIndices returns every index outside the given fold, in ascending
// order.
func (fa *FoldAssignment) TrainIndices(fold int) []int {
	var train []int
	for i, f := range fa.Folds {
		if i != fold {
			train = append(train, f...)
		}
	}
	sort.Ints(train)
	return train
}

// MakeTrainTestSplit builds a single stratified train/test partition.
// Each class contributes a proportional share to the test set, at least
// one record per side, so both partitions keep both classes.
func MakeTrainTestSplit(y []int, trainFraction float64, seed int64) (*TrainTestSplit, error) {
	if trainFraction <= 0 || trainFraction >= 1 {
		return nil, errors.Newf("train fraction must be in (0, 1), got %g", trainFraction)
	}

	rng := rand.New(rand.NewSource(seed))
	split := &TrainTestSplit{}

	for _, indices := range classIndices(y) {
		if len(indices) < 2 {
			return nil, errors.Wrapf(ErrInsufficientData, "class %d has %d records, need at least 2 to split", y[indices[0]], len(indices))
		}

		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		testCount := int(math.Round(float64(len(indices)) * (1 - trainFraction)))
		if testCount == 0 {
			testCount = 1
		}
		if testCount == len(indices) {
			testCount = len(indices) - 1
		}

		trainCount := len(indices) - testCount
		split.Train = append(split.Train, indices[:trainCount]...)
		split.Test = append(split.Test, indices[trainCount:]...)
	}

	sort.Ints(split.Train)
	sort.Ints(split.Test)

	return split, nil
}

// classIndices groups record indices by label, ordered by class so the
// shuffle sequence is deterministic.
func classIndices(y []int) [][]int {
	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}

	classes := make([]int, 0, len(byClass))
	for class := range byClass {
		classes = append(classes, class)
	}
	sort.Ints(classes)

	groups := make([][]int, 0, len(classes))
	for _, class := range classes {
		groups = append(groups, byClass[class])
	}
	return groups
}
