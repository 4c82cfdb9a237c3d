package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

const maxSplitCandidates = 24

type TreeNode struct {
	IsLeaf    bool
	Class     int
	PosProb   float64
	Feature   int
	Threshold decimal.Decimal
	Left      *TreeNode
	Right     *TreeNode
	Samples   int
	Impurity  float64
}

// DecisionTree is the binary classification tree the random forest is
// built from. Leaves keep the positive-class fraction of their training
// rows so the tree can emit calibratable probabilities, not just votes.
type DecisionTree struct {
	BaseModel
	Root            *TreeNode
	MaxDepth        int
	MinSamplesSplit int
}

func NewDecisionTree(maxDepth, minSamplesSplit int) *DecisionTree {
	if maxDepth <= 0 {
		maxDepth = 10
	}
	if minSamplesSplit <= 1 {
		minSamplesSplit = 2
	}

	return &DecisionTree{
		MaxDepth:        maxDepth,
		MinSamplesSplit: minSamplesSplit,
		BaseModel: BaseModel{
			ModelName: "DecisionTree",
			ModelParams: map[string]any{
				"max_depth":         maxDepth,
				"min_samples_split": minSamplesSplit,
			},
		},
	}
}

func (dt *DecisionTree) Fit(x [][]decimal.Decimal, y []int) error {
	dt.Root = dt.buildTree(x, y, 0)
	return nil
}

func (dt *DecisionTree) buildTree(x [][]decimal.Decimal, y []int, depth int) *TreeNode {
	node := &TreeNode{
		Samples:  len(y),
		Impurity: gini(y),
		PosProb:  positiveFraction(y),
	}

	if depth >= dt.MaxDepth || len(y) < dt.MinSamplesSplit || node.Impurity == 0 {
		return dt.makeLeaf(node)
	}

	feature, threshold, decrease := dt.findBestSplit(x, y, node.Impurity)
	if decrease <= 0 {
		return dt.makeLeaf(node)
	}

	leftIdx, rightIdx := partition(x, feature, threshold)
	if len(leftIdx) == 0 || len(rightIdx) == 0 {
		return dt.makeLeaf(node)
	}

	node.Feature = feature
	node.Threshold = threshold

	xLeft, yLeft := selectRows(x, y, leftIdx)
	xRight, yRight := selectRows(x, y, rightIdx)

	node.Left = dt.buildTree(xLeft, yLeft, depth+1)
	node.Right = dt.buildTree(xRight, yRight, depth+1)
	return node
}

func (dt *DecisionTree) makeLeaf(node *TreeNode) *TreeNode {
	node.IsLeaf = true
	if node.PosProb >= 0.5 {
		node.Class = 1
	}
	return node
}

func (dt *DecisionTree) findBestSplit(x [][]decimal.Decimal, y []int, parentImpurity float64) (int, decimal.Decimal, float64) {
	bestFeature := 0
	bestThreshold := decimal.Zero
	bestDecrease := 0.0
	n := len(y)

	for feature := range x[0] {
		for _, threshold := range candidateThresholds(x, feature) {
			leftIdx, rightIdx := partition(x, feature, threshold)
			if len(leftIdx) == 0 || len(rightIdx) == 0 {
				continue
			}

			yLeft := make([]int, len(leftIdx))
			for i, idx := range leftIdx {
				yLeft[i] = y[idx]
			}
			yRight := make([]int, len(rightIdx))
			for i, idx := range rightIdx {
				yRight[i] = y[idx]
			}

			weighted := float64(len(leftIdx))/float64(n)*gini(yLeft) +
				float64(len(rightIdx))/float64(n)*gini(yRight)

			if decrease := parentImpurity - weighted; decrease > bestDecrease {
				bestDecrease = decrease
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	return bestFeature, bestThreshold, bestDecrease
}

// candidateThresholds returns up to maxSplitCandidates evenly spaced
// distinct values of the feature. Scanning every unique value is wasteful
// on continuous clinical measurements and changes nothing on small ones.
func candidateThresholds(x [][]decimal.Decimal, feature int) []decimal.Decimal {
	values := make([]decimal.Decimal, len(x))
	for i, row := range x {
		values[i] = row[feature]
	}
	sort.Slice(values, func(i, j int) bool { return values[i].LessThan(values[j]) })

	distinct := values[:0]
	for i, v := range values {
		if i == 0 || !v.Equal(distinct[len(distinct)-1]) {
			distinct = append(distinct, v)
		}
	}

	if len(distinct) <= maxSplitCandidates {
		return distinct
	}

	stride := len(distinct) / maxSplitCandidates
	thresholds := make([]decimal.Decimal, 0, maxSplitCandidates)
	for i := stride; i < len(distinct); i += stride {
		thresholds = append(thresholds, distinct[i])
	}
	return thresholds
}

func partition(x [][]decimal.Decimal, feature int, threshold decimal.Decimal) ([]int, []int) {
	var left, right []int
	for i, row := range x {
		if row[feature].LessThan(threshold) {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

func selectRows(x [][]decimal.Decimal, y []int, indices []int) ([][]decimal.Decimal, []int) {
	xSel := make([][]decimal.Decimal, len(indices))
	ySel := make([]int, len(indices))
	for i, idx := range indices {
		xSel[i] = x[idx]
		ySel[i] = y[idx]
	}
	return xSel, ySel
}

func (dt *DecisionTree) Predict(x [][]decimal.Decimal) []int {
	predictions := make([]int, len(x))
	for i, sample := range x {
		leaf := dt.leafFor(sample, dt.Root)
		predictions[i] = leaf.Class
	}
	return predictions
}

func (dt *DecisionTree) PredictProba(x [][]decimal.Decimal) []decimal.Decimal {
	proba := make([]decimal.Decimal, len(x))
	for i, sample := range x {
		leaf := dt.leafFor(sample, dt.Root)
		proba[i] = decimal.NewFromFloat(leaf.PosProb)
	}
	return proba
}

func (dt *DecisionTree) leafFor(sample []decimal.Decimal, node *TreeNode) *TreeNode {
	if node.IsLeaf {
		return node
	}
	if sample[node.Feature].LessThan(node.Threshold) {
		return dt.leafFor(sample, node.Left)
	}
	return dt.leafFor(sample, node.Right)
}

func (dt *DecisionTree) Reset() {
	dt.Root = nil
}

func gini(y []int) float64 {
	if len(y) == 0 {
		return 0
	}
	p := positiveFraction(y)
	return 2 * p * (1 - p)
}

func positiveFraction(y []int) float64 {
	if len(y) == 0 {
		return 0
	}
	positives := 0
	for _, label := range y {
		if label == 1 {
			positives++
		}
	}
	return float64(positives) / float64(len(y))
}
