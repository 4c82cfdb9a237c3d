package evaluation

import (
	"math"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Metric names recognized by Score. The positive class is encoded as 1.
const (
	MetricAUC         = "auc"
	MetricAccuracy    = "accuracy"
	MetricSensitivity = "sensitivity"
	MetricSpecificity = "specificity"
)

func DefaultMetricSet() []string {
	return []string{MetricAUC, MetricAccuracy, MetricSensitivity, MetricSpecificity}
}

// Score computes every metric in metricSet for one scored held-out set.
// yPred holds hard class predictions, scores the positive-class
// probabilities used for AUC.
func Score(metricSet []string, yTrue, yPred []int, scores []float64) (map[string]float64, error) {
	if len(yTrue) != len(yPred) || len(yTrue) != len(scores) {
		return nil, errors.Newf("length mismatch: %d labels, %d predictions, %d scores", len(yTrue), len(yPred), len(scores))
	}
	if len(yTrue) == 0 {
		return nil, errors.New("cannot score an empty set")
	}

	tp, fp, tn, fn := confusionCounts(yTrue, yPred)

	result := make(map[string]float64, len(metricSet))
	for _, name := range metricSet {
		switch name {
		case MetricAUC:
			result[name] = AUC(yTrue, scores)
		case MetricAccuracy:
			result[name] = safeDivide(float64(tp+tn), float64(len(yTrue)))
		case MetricSensitivity:
			result[name] = safeDivide(float64(tp), float64(tp+fn))
		case MetricSpecificity:
			result[name] = safeDivide(float64(tn), float64(tn+fp))
		default:
			return nil, errors.Newf("unknown metric: %s", name)
		}
	}
	return result, nil
}

// AUC is the area under the ROC curve of the positive-class scores.
// Inputs are copied before sorting, so callers keep their row order.
func AUC(yTrue []int, scores []float64) float64 {
	y := make([]float64, len(scores))
	classes := make([]bool, len(yTrue))
	copy(y, scores)
	for i, label := range yTrue {
		classes[i] = label == 1
	}

	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

func confusionCounts(yTrue, yPred []int) (tp, fp, tn, fn int) {
	for i, label := range yTrue {
		switch {
		case label == 1 && yPred[i] == 1:
			tp++
		case label == 0 && yPred[i] == 1:
			fp++
		case label == 0 && yPred[i] == 0:
			tn++
		default:
			fn++
		}
	}
	return tp, fp, tn, fn
}

func safeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	result := numerator / denominator
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0
	}
	return result
}
