package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

// WriteCSV exports the table as flat {family, metric, value} rows for
// downstream reporting.
func (t *ResultTable) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"family", "metric", "value"}); err != nil {
		return errors.Wrap(err, "write header")
	}

	for _, entry := range t.Entries {
		for _, name := range t.MetricNames() {
			value, ok := entry.Metrics[name]
			if !ok {
				continue
			}
			row := []string{entry.Family, name, fmt.Sprintf("%.6f", value)}
			if err := writer.Write(row); err != nil {
				return errors.Wrapf(err, "write row for family %s", entry.Family)
			}
		}
	}

	writer.Flush()
	return errors.Wrap(writer.Error(), "flush results")
}

// ExportCSV writes the table to a file path.
func (t *ResultTable) ExportCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create results file")
	}
	defer file.Close()

	return t.WriteCSV(file)
}
