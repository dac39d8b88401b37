// Package dataset holds the in-memory tabular model: typed cells, the
// canonical column map derived from original headers, the file loader and
// its memoizing cache.
package dataset

import (
	"fmt"
	"sort"

	"github.com/cassiap/servers/internal/normalize"
)

// Column pairs a canonical key with the original header text it was
// derived from. The original is what users see and what exports emit; the
// key is what every internal lookup uses.
type Column struct {
	Key      string `json:"key"`
	Original string `json:"original"`
}

// Dataset is an immutable loaded table. Rows are positional and share the
// column order; the key index is built once at load.
type Dataset struct {
	Name     string
	Columns  []Column
	Rows     [][]Cell
	Warnings []string

	keyIndex map[string]int
}

// BuildColumnMap applies the normalizer to each header in input order and
// zips the two sequences into bidirectional maps. On a key collision the
// later header overwrites the earlier in both directions (last-write-wins).
// The loader does not use this path for dataset construction; it exists as
// the documented legacy contract and for callers that want the raw zip.
func BuildColumnMap(originals []string) (canonicalToOriginal, originalToCanonical map[string]string) {
	canonicalToOriginal = make(map[string]string, len(originals))
	originalToCanonical = make(map[string]string, len(originals))
	for _, orig := range originals {
		key := normalize.Header(orig)
		canonicalToOriginal[key] = orig
		originalToCanonical[orig] = key
	}
	return canonicalToOriginal, originalToCanonical
}

// buildColumns derives the dataset's columns from original headers,
// disambiguating key collisions with _2, _3... suffixes and assigning
// positional placeholders to unnamed columns. Collisions and placeholders
// are reported as warnings so no column's data disappears silently.
func buildColumns(originals []string) ([]Column, []string) {
	columns := make([]Column, 0, len(originals))
	seen := make(map[string]int, len(originals))
	var warnings []string

	for i, orig := range originals {
		key := normalize.Header(orig)
		if key == "" {
			key = fmt.Sprintf("column_%d", i+1)
			warnings = append(warnings, fmt.Sprintf("column %d has no header, using placeholder %q", i+1, key))
		}
		if n, ok := seen[key]; ok {
			base := key
			n++
			key = fmt.Sprintf("%s_%d", base, n+1)
			for _, taken := seen[key]; taken; _, taken = seen[key] {
				n++
				key = fmt.Sprintf("%s_%d", base, n+1)
			}
			seen[base] = n
			warnings = append(warnings, fmt.Sprintf("header %q normalizes to the same key as an earlier column, renamed to %q", orig, key))
		}
		seen[key] = 0
		columns = append(columns, Column{Key: key, Original: orig})
	}
	return columns, warnings
}

// New builds a dataset from original headers and raw string rows. Short
// rows are padded with nulls; long rows are truncated to the header width.
func New(name string, originals []string, raw [][]string) *Dataset {
	columns, warnings := buildColumns(originals)

	rows := make([][]Cell, 0, len(raw))
	for _, rec := range raw {
		row := make([]Cell, len(columns))
		for i := range columns {
			if i < len(rec) {
				row[i] = ParseCell(rec[i])
			} else {
				row[i] = Null()
			}
		}
		rows = append(rows, row)
	}

	ds := &Dataset{
		Name:     name,
		Columns:  columns,
		Rows:     rows,
		Warnings: warnings,
	}
	ds.keyIndex = make(map[string]int, len(columns))
	for i, c := range columns {
		ds.keyIndex[c.Key] = i
	}
	return ds
}

// ColumnIndex returns the positional index for a canonical key, or -1.
func (d *Dataset) ColumnIndex(key string) int {
	if i, ok := d.keyIndex[key]; ok {
		return i
	}
	return -1
}

// Keys returns the canonical keys in column order.
func (d *Dataset) Keys() []string {
	keys := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		keys[i] = c.Key
	}
	return keys
}

// OriginalHeaders returns the original header strings in column order.
func (d *Dataset) OriginalHeaders() []string {
	headers := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		headers[i] = c.Original
	}
	return headers
}

// CanonicalToOriginal returns the key -> original header map.
func (d *Dataset) CanonicalToOriginal() map[string]string {
	m := make(map[string]string, len(d.Columns))
	for _, c := range d.Columns {
		m[c.Key] = c.Original
	}
	return m
}

// OriginalToCanonical returns the original header -> key map.
func (d *Dataset) OriginalToCanonical() map[string]string {
	m := make(map[string]string, len(d.Columns))
	for _, c := range d.Columns {
		m[c.Original] = c.Key
	}
	return m
}

// Value returns the cell at rowIdx for a canonical key. Missing columns
// read as Null so lookups never fail.
func (d *Dataset) Value(rowIdx int, key string) Cell {
	i := d.ColumnIndex(key)
	if i < 0 || rowIdx < 0 || rowIdx >= len(d.Rows) || i >= len(d.Rows[rowIdx]) {
		return Null()
	}
	return d.Rows[rowIdx][i]
}

// DistinctValues returns the sorted distinct non-null string values of a
// column. An unknown key yields an empty slice.
func (d *Dataset) DistinctValues(key string) []string {
	i := d.ColumnIndex(key)
	if i < 0 {
		return nil
	}
	seen := make(map[string]bool)
	var values []string
	for _, row := range d.Rows {
		if i >= len(row) || row[i].IsNull() {
			continue
		}
		s := row[i].String()
		if !seen[s] {
			seen[s] = true
			values = append(values, s)
		}
	}
	sort.Strings(values)
	return values
}

// DistinctCount returns the number of distinct non-null values, or 0 for
// an unknown key.
func (d *Dataset) DistinctCount(key string) int {
	return len(d.DistinctValues(key))
}
