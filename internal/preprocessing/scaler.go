package preprocessing

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

// Spec is the declarative preprocessing recipe shared by every model
// family in a comparison run. All families must see the same transform
// definition; only the rows it is fitted on vary.
type Spec struct {
	Scale string `yaml:"scale"`
}

func DefaultSpec() Spec {
	return Spec{Scale: "standard"}
}

func (s Spec) NewScaler() *Scaler {
	return NewScaler(s.Scale)
}

// Scaler normalizes numeric columns. Fit takes the training row indices
// explicitly: statistics are estimated from those rows only, never from
// the full matrix, so held-out rows cannot leak into the transform.
type Scaler struct {
	ScaleType   string
	IsFitted    bool
	FeatureMin  []decimal.Decimal
	FeatureMax  []decimal.Decimal
	FeatureMean []decimal.Decimal
	FeatureStd  []decimal.Decimal
}

func NewScaler(scaleType string) *Scaler {
	if scaleType == "" {
		scaleType = "standard"
	}
	return &Scaler{ScaleType: scaleType}
}

func (s *Scaler) Fit(x [][]decimal.Decimal, rows []int) error {
	if len(rows) == 0 {
		return errors.New("no training rows to fit scaler on")
	}

	nFeatures := len(x[rows[0]])
	s.FeatureMin = make([]decimal.Decimal, nFeatures)
	s.FeatureMax = make([]decimal.Decimal, nFeatures)
	s.FeatureMean = make([]decimal.Decimal, nFeatures)
	s.FeatureStd = make([]decimal.Decimal, nFeatures)

	switch s.ScaleType {
	case "minmax":
		s.fitMinMax(x, rows)
	case "standard":
		s.fitStandard(x, rows)
	case "none":
	default:
		return errors.Newf("unknown scale type: %s", s.ScaleType)
	}

	s.IsFitted = true
	return nil
}

// Apply transforms the given rows with the fitted statistics and returns a
// new matrix in row order; the input matrix is never modified.
func (s *Scaler) Apply(x [][]decimal.Decimal, rows []int) ([][]decimal.Decimal, error) {
	if !s.IsFitted {
		return nil, errors.New("scaler must be fitted before apply")
	}

	result := make([][]decimal.Decimal, len(rows))
	for i, idx := range rows {
		result[i] = make([]decimal.Decimal, len(x[idx]))
		for j, value := range x[idx] {
			switch s.ScaleType {
			case "minmax":
				result[i][j] = s.transformMinMax(value, j)
			case "standard":
				result[i][j] = s.transformStandard(value, j)
			default:
				result[i][j] = value
			}
		}
	}

	return result, nil
}

func (s *Scaler) fitMinMax(x [][]decimal.Decimal, rows []int) {
	nFeatures := len(x[rows[0]])

	for j := 0; j < nFeatures; j++ {
		s.FeatureMin[j] = x[rows[0]][j]
		s.FeatureMax[j] = x[rows[0]][j]

		for _, idx := range rows[1:] {
			if x[idx][j].LessThan(s.FeatureMin[j]) {
				s.FeatureMin[j] = x[idx][j]
			}
			if x[idx][j].GreaterThan(s.FeatureMax[j]) {
				s.FeatureMax[j] = x[idx][j]
			}
		}
	}
}

func (s *Scaler) fitStandard(x [][]decimal.Decimal, rows []int) {
	nFeatures := len(x[rows[0]])
	nSamples := decimal.NewFromInt(int64(len(rows)))

	for j := 0; j < nFeatures; j++ {
		sum := decimal.Zero
		for _, idx := range rows {
			sum = sum.Add(x[idx][j])
		}
		s.FeatureMean[j] = sum.Div(nSamples)
	}

	for j := 0; j < nFeatures; j++ {
		variance := decimal.Zero
		for _, idx := range rows {
			diff := x[idx][j].Sub(s.FeatureMean[j])
			variance = variance.Add(diff.Mul(diff))
		}
		variance = variance.Div(nSamples)

		varFloat, _ := variance.Float64()
		s.FeatureStd[j] = decimal.NewFromFloat(math.Sqrt(varFloat))

		if s.FeatureStd[j].IsZero() {
			s.FeatureStd[j] = decimal.NewFromInt(1)
		}
	}
}

func (s *Scaler) transformMinMax(value decimal.Decimal, featureIndex int) decimal.Decimal {
	span := s.FeatureMax[featureIndex].Sub(s.FeatureMin[featureIndex])
	if span.IsZero() {
		return decimal.Zero
	}
	return value.Sub(s.FeatureMin[featureIndex]).Div(span)
}

func (s *Scaler) transformStandard(value decimal.Decimal, featureIndex int) decimal.Decimal {
	return value.Sub(s.FeatureMean[featureIndex]).Div(s.FeatureStd[featureIndex])
}
