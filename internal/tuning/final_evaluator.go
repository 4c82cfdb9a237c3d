package tuning

import (
	"github.com/cockroachdb/errors"

	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/data"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/evaluation"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/models"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/preprocessing"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/registry"
)

// FinalMetrics is the terminal result for one family: the selected
// candidate and each metric computed exactly once on the test partition.
type FinalMetrics struct {
	Family  string
	Params  map[string]any
	Metrics map[string]float64
}

// EvaluateFinal refits the selected configuration on the training
// partition and scores it once on the untouched test partition. The
// scaler and estimator see only training rows during fitting.
func EvaluateFinal(
	family registry.ModelFamily,
	cand Candidate,
	ds *data.Dataset,
	split *evaluation.TrainTestSplit,
	prep preprocessing.Spec,
	metricSet []string,
	seed int64,
) (FinalMetrics, error) {

	x := ds.Features()
	y := ds.Labels()

	scaler := prep.NewScaler()
	if err := scaler.Fit(x, split.Train); err != nil {
		return FinalMetrics{}, errors.Wrapf(err, "family %s final fit", family.Name)
	}

	xTrain, err := scaler.Apply(x, split.Train)
	if err != nil {
		return FinalMetrics{}, errors.Wrapf(err, "family %s final fit", family.Name)
	}
	xTest, err := scaler.Apply(x, split.Test)
	if err != nil {
		return FinalMetrics{}, errors.Wrapf(err, "family %s final fit", family.Name)
	}

	est, err := models.New(family.Kind, mergeParams(family.FixedParams, cand.Params, seed))
	if err != nil {
		return FinalMetrics{}, err
	}

	if err := est.Fit(xTrain, labelsAt(y, split.Train)); err != nil {
		return FinalMetrics{}, errors.Wrapf(err, "family %s final fit with selected candidate %d", family.Name, cand.Index)
	}

	yTest := labelsAt(y, split.Test)
	metrics, err := evaluation.Score(metricSet, yTest, est.Predict(xTest), probaFloats(est.PredictProba(xTest)))
	if err != nil {
		return FinalMetrics{}, errors.Wrapf(err, "family %s final scoring", family.Name)
	}

	return FinalMetrics{
		Family:  family.Name,
		Params:  cand.Params,
		Metrics: metrics,
	}, nil
}
