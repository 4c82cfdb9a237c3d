package preprocessing

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// positiveNames are label spellings treated as the positive class when one
// of the two observed classes matches.
var positiveNames = map[string]bool{
	"pos":      true,
	"positive": true,
	"yes":      true,
	"true":     true,
	"1":        true,
}

// LabelEncoder maps binary string labels to {0, 1}. Encoding is
// deterministic: classes are ordered by sorted name, then the class whose
// name reads as positive is moved to 1.
type LabelEncoder struct {
	ClassToInt map[string]int
	IntToClass map[int]string
	IsFitted   bool
}

func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{
		ClassToInt: make(map[string]int),
		IntToClass: make(map[int]string),
	}
}

func (le *LabelEncoder) Fit(labels []string) error {
	unique := make(map[string]bool)
	for _, label := range labels {
		unique[label] = true
	}

	classes := make([]string, 0, len(unique))
	for label := range unique {
		classes = append(classes, label)
	}
	sort.Strings(classes)

	if len(classes) != 2 {
		return errors.Newf("expected 2 label classes, got %d (%v)", len(classes), classes)
	}

	if positiveNames[strings.ToLower(classes[0])] && !positiveNames[strings.ToLower(classes[1])] {
		classes[0], classes[1] = classes[1], classes[0]
	}

	le.ClassToInt = map[string]int{classes[0]: 0, classes[1]: 1}
	le.IntToClass = map[int]string{0: classes[0], 1: classes[1]}
	le.IsFitted = true
	return nil
}

func (le *LabelEncoder) Transform(labels []string) ([]int, error) {
	if !le.IsFitted {
		return nil, errors.New("label encoder must be fitted before transform")
	}

	result := make([]int, len(labels))
	for i, label := range labels {
		val, ok := le.ClassToInt[label]
		if !ok {
			return nil, errors.Newf("unknown label: %s", label)
		}
		result[i] = val
	}
	return result, nil
}

func (le *LabelEncoder) FitTransform(labels []string) ([]int, error) {
	if err := le.Fit(labels); err != nil {
		return nil, err
	}
	return le.Transform(labels)
}

// Classes returns the label names indexed by encoded class.
func (le *LabelEncoder) Classes() []string {
	return []string{le.IntToClass[0], le.IntToClass[1]}
}

func (le *LabelEncoder) InverseTransform(y []int) ([]string, error) {
	if !le.IsFitted {
		return nil, errors.New("label encoder must be fitted before inverse transform")
	}

	result := make([]string, len(y))
	for i, val := range y {
		label, ok := le.IntToClass[val]
		if !ok {
			return nil, errors.Newf("unknown class: %d", val)
		}
		result[i] = label
	}
	return result, nil
}
