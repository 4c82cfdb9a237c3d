package models

import (
	"github.com/cockroachdb/errors"
)

// Kind enumerates the closed set of estimator families under comparison.
type Kind string

const (
	KindL1Logistic       Kind = "l1_logistic"
	KindL2Logistic       Kind = "l2_logistic"
	KindElasticNet       Kind = "elasticnet_logistic"
	KindRandomForest     Kind = "random_forest"
	KindGradientBoosting Kind = "gradient_boosting"
)

// New builds an estimator of the given kind from a merged parameter map
// (family fixed params overlaid with one tuning candidate). The "seed"
// entry drives every stochastic part of fitting.
func New(kind Kind, params map[string]any) (Estimator, error) {
	seed := int64Param(params, "seed", 42)

	switch kind {
	case KindL1Logistic:
		return NewLogistic(floatParam(params, "penalty", 0.01), 1, seed), nil

	case KindL2Logistic:
		return NewLogistic(floatParam(params, "penalty", 0.01), 0, seed), nil

	case KindElasticNet:
		return NewLogistic(
			floatParam(params, "penalty", 0.01),
			floatParam(params, "mixture", 0.5),
			seed,
		), nil

	case KindRandomForest:
		return NewRandomForest(
			intParam(params, "n_trees", 100),
			intParam(params, "max_depth", 10),
			intParam(params, "min_samples_split", 2),
			seed,
		), nil

	case KindGradientBoosting:
		return NewGradientBoosting(
			intParam(params, "n_rounds", 100),
			floatParam(params, "learning_rate", 0.1),
			intParam(params, "max_depth", 3),
			seed,
		), nil

	default:
		return nil, errors.Newf("unknown estimator kind: %s", kind)
	}
}

func floatParam(params map[string]any, name string, def float64) float64 {
	switch v := params[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

func intParam(params map[string]any, name string, def int) int {
	switch v := params[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

func int64Param(params map[string]any, name string, def int64) int64 {
	switch v := params[name].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return def
	}
}
