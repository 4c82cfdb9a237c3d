package models

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

// ErrEstimatorFit marks a single fit failure (non-convergence, degenerate
// input). The tuner records the candidate as failed and moves on; it is
// never fatal to a family's whole search.
var ErrEstimatorFit = errors.New("estimator fit failed")

// Estimator is the capability interface every model family implements.
// PredictProba returns the positive-class probability per row, which is
// what the ranking metrics consume.
type Estimator interface {
	Fit(x [][]decimal.Decimal, y []int) error
	Predict(x [][]decimal.Decimal) []int
	PredictProba(x [][]decimal.Decimal) []decimal.Decimal
	Name() string
	Params() map[string]any
	Reset()
}

type BaseModel struct {
	ModelName   string
	ModelParams map[string]any
}

func (bm *BaseModel) Name() string {
	return bm.ModelName
}

func (bm *BaseModel) Params() map[string]any {
	return bm.ModelParams
}

// toFloat converts a decimal feature matrix to float64 once per fit, for
// the estimators whose arithmetic needs transcendental functions.
func toFloat(x [][]decimal.Decimal) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			f, _ := v.Float64()
			out[i][j] = f
		}
	}
	return out
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
