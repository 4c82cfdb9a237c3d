// Package report assembles per-family final metrics into one comparable
// table and renders it.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"

	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/registry"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/tuning"
)

// ResultTable is the terminal artifact of a comparison run: one entry per
// family, keyed by family name, sorted by name so the content is
// independent of which family finished first.
type ResultTable struct {
	Entries []tuning.FinalMetrics
}

// Aggregate merges the families' final metrics. Duplicate family names
// fail with the registry's duplicate-family error.
func Aggregate(entries []tuning.FinalMetrics) (*ResultTable, error) {
	seen := make(map[string]bool, len(entries))
	merged := make([]tuning.FinalMetrics, 0, len(entries))

	for _, entry := range entries {
		if seen[entry.Family] {
			return nil, errors.Wrapf(registry.ErrDuplicateFamily, "family %q appears twice in aggregation", entry.Family)
		}
		seen[entry.Family] = true
		merged = append(merged, entry)
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].Family < merged[j].Family })

	return &ResultTable{Entries: merged}, nil
}

// MetricNames returns the union of metric names across entries, sorted.
func (t *ResultTable) MetricNames() []string {
	seen := make(map[string]bool)
	for _, entry := range t.Entries {
		for name := range entry.Metrics {
			seen[name] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Print renders the table with one row per family and one column per
// metric, highlighting the best value in each metric column.
func (t *ResultTable) Print(w io.Writer) {
	metrics := t.MetricNames()

	header := color.New(color.FgCyan, color.Bold)
	best := color.New(color.FgGreen, color.Bold)

	header.Fprintf(w, "%-24s", "family")
	for _, name := range metrics {
		header.Fprintf(w, "%12s", name)
	}
	fmt.Fprintln(w)

	bestValues := make(map[string]float64, len(metrics))
	for _, name := range metrics {
		for i, entry := range t.Entries {
			if value, ok := entry.Metrics[name]; ok && (i == 0 || value > bestValues[name]) {
				bestValues[name] = value
			}
		}
	}

	for _, entry := range t.Entries {
		fmt.Fprintf(w, "%-24s", entry.Family)
		for _, name := range metrics {
			value, ok := entry.Metrics[name]
			if !ok {
				fmt.Fprintf(w, "%12s", "-")
				continue
			}
			if value == bestValues[name] {
				best.Fprintf(w, "%12.4f", value)
			} else {
				fmt.Fprintf(w, "%12.4f", value)
			}
		}
		fmt.Fprintln(w)
	}
}
