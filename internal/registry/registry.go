// Package registry holds the model families under comparison: estimator
// kind, fixed hyperparameters, and the tunable search space. Populated
// once at startup and read-only afterwards.
package registry

import (
	"github.com/cockroachdb/errors"

	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/models"
)

// ErrDuplicateFamily is returned when a family name is registered or
// aggregated twice.
var ErrDuplicateFamily = errors.New("duplicate model family")

// Range is a continuous hyperparameter interval. LogScale ranges are
// sampled log-uniformly: penalty strengths span decades, and uniform
// sampling on the raw range would almost never draw the small values.
type Range struct {
	Min      float64
	Max      float64
	LogScale bool
}

// IntRange is an inclusive integer hyperparameter interval.
type IntRange struct {
	Min int
	Max int
}

// SearchSpace maps tunable parameter names to a Range or IntRange.
type SearchSpace map[string]any

// ModelFamily is one entry in the comparison: a name, an estimator kind,
// hyperparameters fixed for every candidate, and the space the tuner
// searches. Never mutated after registration.
type ModelFamily struct {
	Name        string
	Kind        models.Kind
	FixedParams map[string]any
	Space       SearchSpace
}

type Registry struct {
	families []ModelFamily
	byName   map[string]bool
}

func New() *Registry {
	return &Registry{byName: make(map[string]bool)}
}

func (r *Registry) Register(family ModelFamily) error {
	if family.Name == "" {
		return errors.New("model family needs a name")
	}
	if r.byName[family.Name] {
		return errors.Wrapf(ErrDuplicateFamily, "family %q already registered", family.Name)
	}

	r.byName[family.Name] = true
	r.families = append(r.families, family)
	return nil
}

// Families returns the registered families in registration order.
func (r *Registry) Families() []ModelFamily {
	out := make([]ModelFamily, len(r.families))
	copy(out, r.families)
	return out
}

// Default registers the five families of the clinical comparison. The
// logistic variants share the penalty range; the mixed-penalty family
// additionally tunes the L1/L2 mixture.
func Default() *Registry {
	r := New()

	penalty := Range{Min: 1e-4, Max: 1e2, LogScale: true}

	// Register cannot fail here: names are distinct literals.
	r.Register(ModelFamily{
		Name:  "lasso_logistic",
		Kind:  models.KindL1Logistic,
		Space: SearchSpace{"penalty": penalty},
	})
	r.Register(ModelFamily{
		Name:  "ridge_logistic",
		Kind:  models.KindL2Logistic,
		Space: SearchSpace{"penalty": penalty},
	})
	r.Register(ModelFamily{
		Name: "elasticnet_logistic",
		Kind: models.KindElasticNet,
		Space: SearchSpace{
			"penalty": penalty,
			"mixture": Range{Min: 0, Max: 1},
		},
	})
	r.Register(ModelFamily{
		Name:        "random_forest",
		Kind:        models.KindRandomForest,
		FixedParams: map[string]any{"min_samples_split": 2},
		Space: SearchSpace{
			"n_trees":   IntRange{Min: 100, Max: 500},
			"max_depth": IntRange{Min: 2, Max: 8},
		},
	})
	r.Register(ModelFamily{
		Name: "gradient_boosting",
		Kind: models.KindGradientBoosting,
		Space: SearchSpace{
			"n_rounds":      IntRange{Min: 50, Max: 300},
			"learning_rate": Range{Min: 0.01, Max: 0.3, LogScale: true},
			"max_depth":     IntRange{Min: 2, Max: 6},
		},
	})

	return r
}
