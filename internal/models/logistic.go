package models

import (
	"math"
	"math/rand"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

// Logistic is a penalized logistic regression fitted by proximal gradient
// descent. Penalty is the overall regularization strength; Mixture blends
// the penalty between L1 (1.0) and L2 (0.0), so elastic net sits between.
type Logistic struct {
	BaseModel
	Penalty      float64
	Mixture      float64
	LearningRate float64
	MaxIter      int
	Tol          float64
	Seed         int64

	weights []float64
	bias    float64
}

func NewLogistic(penalty, mixture float64, seed int64) *Logistic {
	if penalty < 0 {
		penalty = 0
	}
	if mixture < 0 {
		mixture = 0
	}
	if mixture > 1 {
		mixture = 1
	}

	return &Logistic{
		Penalty:      penalty,
		Mixture:      mixture,
		LearningRate: 0.1,
		MaxIter:      500,
		Tol:          1e-6,
		Seed:         seed,
		BaseModel: BaseModel{
			ModelName: "Logistic",
			ModelParams: map[string]any{
				"penalty": penalty,
				"mixture": mixture,
			},
		},
	}
}

func (lr *Logistic) Fit(x [][]decimal.Decimal, y []int) error {
	if len(x) == 0 {
		return errors.Wrap(ErrEstimatorFit, "empty training set")
	}

	features := toFloat(x)
	n := float64(len(features))
	nFeatures := len(features[0])

	rng := rand.New(rand.NewSource(lr.Seed))
	lr.weights = make([]float64, nFeatures)
	for j := range lr.weights {
		lr.weights[j] = rng.NormFloat64() * 0.01
	}
	lr.bias = 0

	l1 := lr.Penalty * lr.Mixture
	l2 := lr.Penalty * (1 - lr.Mixture)

	prevLoss := math.Inf(1)

	for iter := 0; iter < lr.MaxIter; iter++ {
		gradW := make([]float64, nFeatures)
		gradB := 0.0
		loss := 0.0

		for i, row := range features {
			p := lr.decision(row)
			residual := p - float64(y[i])
			for j, v := range row {
				gradW[j] += residual * v
			}
			gradB += residual

			if y[i] == 1 {
				loss -= math.Log(math.Max(p, 1e-15))
			} else {
				loss -= math.Log(math.Max(1-p, 1e-15))
			}
		}
		loss /= n

		for j, w := range lr.weights {
			// Smooth part of the step: log-loss gradient plus the L2 term.
			w -= lr.LearningRate * (gradW[j]/n + l2*w)
			// Proximal step for the L1 term (soft threshold).
			lr.weights[j] = softThreshold(w, lr.LearningRate*l1)
			loss += l2/2*lr.weights[j]*lr.weights[j] + l1*math.Abs(lr.weights[j])
		}
		lr.bias -= lr.LearningRate * gradB / n

		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			return errors.Wrapf(ErrEstimatorFit, "diverged at iteration %d (penalty=%g mixture=%g)", iter, lr.Penalty, lr.Mixture)
		}

		if math.Abs(prevLoss-loss) < lr.Tol {
			return nil
		}
		prevLoss = loss
	}

	return nil
}

func (lr *Logistic) decision(row []float64) float64 {
	z := lr.bias
	for j, v := range row {
		z += lr.weights[j] * v
	}
	return sigmoid(z)
}

func softThreshold(w, threshold float64) float64 {
	switch {
	case w > threshold:
		return w - threshold
	case w < -threshold:
		return w + threshold
	default:
		return 0
	}
}

func (lr *Logistic) Predict(x [][]decimal.Decimal) []int {
	predictions := make([]int, len(x))
	for i, p := range lr.PredictProba(x) {
		prob, _ := p.Float64()
		if prob >= 0.5 {
			predictions[i] = 1
		}
	}
	return predictions
}

func (lr *Logistic) PredictProba(x [][]decimal.Decimal) []decimal.Decimal {
	features := toFloat(x)
	proba := make([]decimal.Decimal, len(features))
	for i, row := range features {
		proba[i] = decimal.NewFromFloat(lr.decision(row))
	}
	return proba
}

func (lr *Logistic) Reset() {
	lr.weights = nil
	lr.bias = 0
}
