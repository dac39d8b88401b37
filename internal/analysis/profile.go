// Package analysis computes per-column profiles over a loaded dataset for
// the summary view: inferred kinds, null/distinct counts and basic
// numeric stats.
package analysis

import (
	"sort"

	"github.com/cassiap/servers/internal/dataset"
)

// ColumnProfile summarizes one column.
type ColumnProfile struct {
	Key      string `json:"key"`
	Original string `json:"original"`
	Kind     string `json:"kind"` // "text", "number", "date", "empty"
	NonNull  int    `json:"non_null"`
	Distinct int    `json:"distinct"`

	// Numeric stats, present only when Kind is "number".
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Mean   *float64 `json:"mean,omitempty"`
	Median *float64 `json:"median,omitempty"`
}

// Profile summarizes a dataset.
type Profile struct {
	Rows    int             `json:"rows"`
	Columns []ColumnProfile `json:"columns"`
}

// ProfileDataset walks every column once and returns its profile.
func ProfileDataset(ds *dataset.Dataset) Profile {
	profile := Profile{Rows: len(ds.Rows)}

	for i, col := range ds.Columns {
		cp := ColumnProfile{Key: col.Key, Original: col.Original}

		kinds := make(map[dataset.CellKind]int)
		distinct := make(map[string]bool)
		var numbers []float64

		for _, row := range ds.Rows {
			if i >= len(row) || row[i].IsNull() {
				continue
			}
			cell := row[i]
			cp.NonNull++
			kinds[cell.Kind]++
			distinct[cell.String()] = true
			if cell.Kind == dataset.KindNumber {
				numbers = append(numbers, cell.Number)
			}
		}

		cp.Distinct = len(distinct)
		cp.Kind = dominantKind(kinds)
		if cp.Kind == "number" && len(numbers) > 0 {
			min, max, mean, median := numericStats(numbers)
			cp.Min, cp.Max, cp.Mean, cp.Median = &min, &max, &mean, &median
		}

		profile.Columns = append(profile.Columns, cp)
	}
	return profile
}

// dominantKind picks the most frequent non-null kind. Ties break toward
// text, the safest rendering.
func dominantKind(kinds map[dataset.CellKind]int) string {
	if len(kinds) == 0 {
		return "empty"
	}
	best := dataset.KindText
	bestCount := kinds[dataset.KindText]
	if kinds[dataset.KindNumber] > bestCount {
		best, bestCount = dataset.KindNumber, kinds[dataset.KindNumber]
	}
	if kinds[dataset.KindDate] > bestCount {
		best = dataset.KindDate
	}
	switch best {
	case dataset.KindNumber:
		return "number"
	case dataset.KindDate:
		return "date"
	default:
		return "text"
	}
}

func numericStats(values []float64) (min, max, mean, median float64) {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	min = sorted[0]
	max = sorted[len(sorted)-1]

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean = sum / float64(len(sorted))

	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	} else {
		median = sorted[len(sorted)/2]
	}
	return min, max, mean, median
}
