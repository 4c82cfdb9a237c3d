package data

import (
	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidDataset covers schema violations: ragged rows, empty feature
// sets, non-binary labels.
var ErrInvalidDataset = errors.New("invalid dataset")

// Dataset is an immutable cleaned table of records. The feature matrix and
// labels are shared read-only across the whole pipeline run; callers must
// not mutate what the accessors return.
type Dataset struct {
	featureNames []string
	classNames   []string
	x            [][]decimal.Decimal
	y            []int
}

func NewDataset(featureNames, classNames []string, x [][]decimal.Decimal, y []int) *Dataset {
	return &Dataset{
		featureNames: featureNames,
		classNames:   classNames,
		x:            x,
		y:            y,
	}
}

func (ds *Dataset) Len() int {
	return len(ds.x)
}

func (ds *Dataset) NumFeatures() int {
	if len(ds.x) == 0 {
		return 0
	}
	return len(ds.x[0])
}

func (ds *Dataset) FeatureNames() []string {
	return ds.featureNames
}

// ClassNames returns the original label strings indexed by encoded class,
// so ClassNames()[1] is the positive class.
func (ds *Dataset) ClassNames() []string {
	return ds.classNames
}

func (ds *Dataset) Features() [][]decimal.Decimal {
	return ds.x
}

func (ds *Dataset) Labels() []int {
	return ds.y
}

// ClassCounts returns the number of records per encoded class.
func (ds *Dataset) ClassCounts() map[int]int {
	counts := make(map[int]int)
	for _, label := range ds.y {
		counts[label]++
	}
	return counts
}
