package data

import (
	"github.com/cockroachdb/errors"
)

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks the structural invariants the pipeline relies on: a
// rectangular feature matrix, exactly two label classes, and at least one
// record per class.
func (v *Validator) Validate(ds *Dataset) error {
	if ds.Len() == 0 {
		return errors.Wrap(ErrInvalidDataset, "dataset is empty")
	}

	x := ds.Features()
	y := ds.Labels()

	if len(x) != len(y) {
		return errors.Wrapf(ErrInvalidDataset, "feature matrix and labels have different lengths: %d vs %d", len(x), len(y))
	}

	nFeatures := ds.NumFeatures()
	if nFeatures == 0 {
		return errors.Wrap(ErrInvalidDataset, "records have no features")
	}

	for i, sample := range x {
		if len(sample) != nFeatures {
			return errors.Wrapf(ErrInvalidDataset, "inconsistent feature count at record %d: expected %d, got %d", i, nFeatures, len(sample))
		}
	}

	counts := ds.ClassCounts()
	if len(counts) != 2 {
		return errors.Wrapf(ErrInvalidDataset, "expected a binary label, got %d classes", len(counts))
	}
	for class, count := range counts {
		if count < 1 {
			return errors.Wrapf(ErrInvalidDataset, "class %d has no records", class)
		}
	}

	return nil
}
