package data

import (
	"encoding/csv"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/preprocessing"
)

type CSVReader struct {
	filename    string
	labelColumn string
}

// NewCSVReader reads the dataset at filename. labelColumn names the binary
// outcome column; an empty labelColumn means the last column.
func NewCSVReader(filename, labelColumn string) *CSVReader {
	return &CSVReader{filename: filename, labelColumn: labelColumn}
}

// Load reads the CSV into a Dataset. Rows with any empty cell or any
// unparseable predictor are dropped, so the returned Dataset carries no
// missing values. The second return value is the number of dropped rows.
func (cr *CSVReader) Load() (*Dataset, int, error) {
	file, err := os.Open(cr.filename)
	if err != nil {
		return nil, 0, errors.Wrap(err, "open dataset")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, 0, errors.Wrap(err, "read dataset")
	}

	if len(records) < 2 {
		return nil, 0, errors.Wrap(ErrInvalidDataset, "no data rows")
	}

	headers := records[0]
	labelCol := len(headers) - 1
	if cr.labelColumn != "" {
		labelCol = -1
		for i, h := range headers {
			if strings.EqualFold(strings.TrimSpace(h), cr.labelColumn) {
				labelCol = i
				break
			}
		}
		if labelCol < 0 {
			return nil, 0, errors.Wrapf(ErrInvalidDataset, "label column %q not found", cr.labelColumn)
		}
	}

	featureNames := make([]string, 0, len(headers)-1)
	for i, h := range headers {
		if i != labelCol {
			featureNames = append(featureNames, strings.TrimSpace(h))
		}
	}

	var x [][]decimal.Decimal
	var labels []string
	dropped := 0

	for _, record := range records[1:] {
		if len(record) != len(headers) {
			dropped++
			continue
		}

		incomplete := false
		for _, val := range record {
			if strings.TrimSpace(val) == "" {
				incomplete = true
				break
			}
		}
		if incomplete {
			dropped++
			continue
		}

		features := make([]decimal.Decimal, 0, len(record)-1)
		label := ""
		for j, val := range record {
			if j == labelCol {
				label = strings.TrimSpace(val)
				continue
			}
			decVal, err := decimal.NewFromString(strings.TrimSpace(val))
			if err != nil {
				incomplete = true
				break
			}
			features = append(features, decVal)
		}
		if incomplete {
			dropped++
			continue
		}

		x = append(x, features)
		labels = append(labels, label)
	}

	if len(x) == 0 {
		return nil, dropped, errors.Wrap(ErrInvalidDataset, "all rows dropped")
	}

	encoder := preprocessing.NewLabelEncoder()
	y, err := encoder.FitTransform(labels)
	if err != nil {
		return nil, dropped, err
	}

	return NewDataset(featureNames, encoder.Classes(), x, y), dropped, nil
}
