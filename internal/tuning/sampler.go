package tuning

import (
	"math"
	"math/rand"
	"sort"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"

	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/registry"
)

// Candidate is one concrete assignment of values to a family's tunable
// hyperparameters. Index is its position in the sampled sequence and the
// selection tie-breaker.
type Candidate struct {
	Index  int
	Params map[string]any
}

// SampleCandidates draws budget candidates from the search space with a
// seeded rng. Parameter names are visited in sorted order so the same
// seed always yields the same candidate sequence. Continuous ranges are
// uniform, or log-uniform when flagged; integer ranges are uniform
// inclusive.
func SampleCandidates(space registry.SearchSpace, budget int, seed int64) ([]Candidate, error) {
	if budget < 1 {
		return nil, errors.Newf("search budget must be at least 1, got %d", budget)
	}

	names := make([]string, 0, len(space))
	for name := range space {
		names = append(names, name)
	}
	sort.Strings(names)

	rng := rand.New(rand.NewSource(seed))
	candidates := make([]Candidate, budget)

	for i := 0; i < budget; i++ {
		params := make(map[string]any, len(names))
		for _, name := range names {
			switch spec := space[name].(type) {
			case registry.Range:
				if spec.LogScale {
					params[name] = math.Exp(uniformIn(rng, math.Log(spec.Min), math.Log(spec.Max)))
				} else {
					params[name] = uniformIn(rng, spec.Min, spec.Max)
				}
			case registry.IntRange:
				params[name] = uniformIn(rng, spec.Min, spec.Max)
			default:
				return nil, errors.Newf("parameter %q has unsupported search space type %T", name, space[name])
			}
		}
		candidates[i] = Candidate{Index: i, Params: params}
	}

	return candidates, nil
}

func uniformIn[T constraints.Integer | constraints.Float](rng *rand.Rand, min, max T) T {
	switch any(min).(type) {
	case int, int32, int64:
		lo := int64(min)
		hi := int64(max)
		if hi <= lo {
			return min
		}
		return T(lo + rng.Int63n(hi-lo+1))
	default:
		lo := float64(min)
		hi := float64(max)
		return T(lo + rng.Float64()*(hi-lo))
	}
}
