package models

import (
	"math"
	"math/rand"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

// GradientBoosting fits an additive ensemble of shallow regression trees
// to the logistic loss. Each round fits a tree to the current residuals
// and takes a Newton step per leaf, damped by the learning rate.
type GradientBoosting struct {
	BaseModel
	NRounds         int
	LearningRate    float64
	MaxDepth        int
	MinSamplesSplit int
	Subsample       float64
	Seed            int64

	initScore float64
	trees     []*regressionNode
}

func NewGradientBoosting(nRounds int, learningRate float64, maxDepth int, seed int64) *GradientBoosting {
	if nRounds <= 0 {
		nRounds = 100
	}
	if learningRate <= 0 {
		learningRate = 0.1
	}
	if maxDepth <= 0 {
		maxDepth = 3
	}

	return &GradientBoosting{
		NRounds:         nRounds,
		LearningRate:    learningRate,
		MaxDepth:        maxDepth,
		MinSamplesSplit: 2,
		Subsample:       1.0,
		Seed:            seed,
		BaseModel: BaseModel{
			ModelName: "GradientBoosting",
			ModelParams: map[string]any{
				"n_rounds":      nRounds,
				"learning_rate": learningRate,
				"max_depth":     maxDepth,
			},
		},
	}
}

func (gb *GradientBoosting) Fit(x [][]decimal.Decimal, y []int) error {
	if len(x) == 0 {
		return errors.Wrap(ErrEstimatorFit, "empty training set")
	}

	features := toFloat(x)
	n := len(features)

	pos := positiveFraction(y)
	if pos == 0 || pos == 1 {
		// A single-class bootstrap is fine for a forest tree, but boosting
		// has no gradient signal without both classes.
		return errors.Wrap(ErrEstimatorFit, "training set has a single class")
	}
	gb.initScore = math.Log(pos / (1 - pos))

	rng := rand.New(rand.NewSource(gb.Seed))
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = gb.initScore
	}

	gb.trees = make([]*regressionNode, 0, gb.NRounds)

	gradients := make([]float64, n)
	hessians := make([]float64, n)

	for round := 0; round < gb.NRounds; round++ {
		for i := range features {
			p := sigmoid(scores[i])
			gradients[i] = float64(y[i]) - p
			hessians[i] = p * (1 - p)
		}

		rows := gb.sampleRows(n, rng)
		tree := gb.buildRegressionTree(features, gradients, hessians, rows, 0)
		gb.trees = append(gb.trees, tree)

		for i, row := range features {
			scores[i] += gb.LearningRate * evalRegressionTree(tree, row)
			if math.IsNaN(scores[i]) || math.IsInf(scores[i], 0) {
				return errors.Wrapf(ErrEstimatorFit, "diverged at round %d", round)
			}
		}
	}

	return nil
}

func (gb *GradientBoosting) sampleRows(n int, rng *rand.Rand) []int {
	if gb.Subsample >= 1 {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		return rows
	}

	count := int(float64(n) * gb.Subsample)
	if count < 1 {
		count = 1
	}
	perm := rng.Perm(n)[:count]
	sort.Ints(perm)
	return perm
}

type regressionNode struct {
	isLeaf    bool
	value     float64
	feature   int
	threshold float64
	left      *regressionNode
	right     *regressionNode
}

// buildRegressionTree grows a tree on the pseudo-residuals. Leaf values
// are the Newton step sum(g)/sum(h) for the rows that land there.
func (gb *GradientBoosting) buildRegressionTree(features [][]float64, gradients, hessians []float64, rows []int, depth int) *regressionNode {
	if depth >= gb.MaxDepth || len(rows) < gb.MinSamplesSplit {
		return &regressionNode{isLeaf: true, value: leafValue(gradients, hessians, rows)}
	}

	feature, threshold, gain := gb.findBestRegressionSplit(features, gradients, rows)
	if gain <= 0 {
		return &regressionNode{isLeaf: true, value: leafValue(gradients, hessians, rows)}
	}

	var left, right []int
	for _, idx := range rows {
		if features[idx][feature] < threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &regressionNode{isLeaf: true, value: leafValue(gradients, hessians, rows)}
	}

	return &regressionNode{
		feature:   feature,
		threshold: threshold,
		left:      gb.buildRegressionTree(features, gradients, hessians, left, depth+1),
		right:     gb.buildRegressionTree(features, gradients, hessians, right, depth+1),
	}
}

func (gb *GradientBoosting) findBestRegressionSplit(features [][]float64, gradients []float64, rows []int) (int, float64, float64) {
	bestFeature := 0
	bestThreshold := 0.0
	bestGain := 0.0

	totalSum := 0.0
	for _, idx := range rows {
		totalSum += gradients[idx]
	}
	totalCount := float64(len(rows))
	parentScore := totalSum * totalSum / totalCount

	for feature := range features[rows[0]] {
		for _, threshold := range regressionThresholds(features, feature, rows) {
			leftSum, leftCount := 0.0, 0.0
			for _, idx := range rows {
				if features[idx][feature] < threshold {
					leftSum += gradients[idx]
					leftCount++
				}
			}
			if leftCount == 0 || leftCount == totalCount {
				continue
			}

			rightSum := totalSum - leftSum
			rightCount := totalCount - leftCount

			// Variance-reduction gain on the gradient sums.
			gain := leftSum*leftSum/leftCount + rightSum*rightSum/rightCount - parentScore
			if gain > bestGain {
				bestGain = gain
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	return bestFeature, bestThreshold, bestGain
}

func regressionThresholds(features [][]float64, feature int, rows []int) []float64 {
	values := make([]float64, len(rows))
	for i, idx := range rows {
		values[i] = features[idx][feature]
	}
	sort.Float64s(values)

	distinct := values[:0]
	for i, v := range values {
		if i == 0 || v != distinct[len(distinct)-1] {
			distinct = append(distinct, v)
		}
	}

	if len(distinct) <= maxSplitCandidates {
		return distinct
	}

	stride := len(distinct) / maxSplitCandidates
	thresholds := make([]float64, 0, maxSplitCandidates)
	for i := stride; i < len(distinct); i += stride {
		thresholds = append(thresholds, distinct[i])
	}
	return thresholds
}

func leafValue(gradients, hessians []float64, rows []int) float64 {
	gradSum, hessSum := 0.0, 0.0
	for _, idx := range rows {
		gradSum += gradients[idx]
		hessSum += hessians[idx]
	}
	if hessSum < 1e-12 {
		return 0
	}
	return gradSum / hessSum
}

func evalRegressionTree(node *regressionNode, row []float64) float64 {
	for !node.isLeaf {
		if row[node.feature] < node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

func (gb *GradientBoosting) Predict(x [][]decimal.Decimal) []int {
	predictions := make([]int, len(x))
	for i, p := range gb.PredictProba(x) {
		prob, _ := p.Float64()
		if prob >= 0.5 {
			predictions[i] = 1
		}
	}
	return predictions
}

func (gb *GradientBoosting) PredictProba(x [][]decimal.Decimal) []decimal.Decimal {
	features := toFloat(x)
	proba := make([]decimal.Decimal, len(features))
	for i, row := range features {
		score := gb.initScore
		for _, tree := range gb.trees {
			score += gb.LearningRate * evalRegressionTree(tree, row)
		}
		proba[i] = decimal.NewFromFloat(sigmoid(score))
	}
	return proba
}

func (gb *GradientBoosting) Reset() {
	gb.trees = nil
	gb.initScore = 0
}
