package dataset

import (
	"strconv"
	"time"
)

// CellKind tags the dynamic type of a cell value.
type CellKind int

const (
	KindNull CellKind = iota
	KindText
	KindNumber
	KindDate
)

// Cell is a tagged variant for a single table value. Every component that
// needs "the string form of a value" (filtering, search, export, display)
// goes through String so there is exactly one canonical representation:
// text verbatim, numbers as locale-free decimals, dates as ISO-8601,
// null as the empty string.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Date   time.Time
}

var cellDateFormats = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
}

// Null returns the absent-value cell.
func Null() Cell { return Cell{Kind: KindNull} }

// Text returns a text cell.
func Text(s string) Cell { return Cell{Kind: KindText, Text: s} }

// Number returns a numeric cell.
func Number(f float64) Cell { return Cell{Kind: KindNumber, Number: f} }

// Date returns a date cell truncated to day precision.
func Date(t time.Time) Cell { return Cell{Kind: KindDate, Date: t} }

// ParseCell infers the kind of a raw string value read from a file or a
// database column. Empty input is Null; integers and decimals become
// Number; values matching a known date layout become Date; everything
// else stays Text. Inference never fails.
func ParseCell(raw string) Cell {
	if raw == "" {
		return Null()
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Number(float64(i))
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Number(f)
	}
	for _, layout := range cellDateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return Date(t)
		}
	}
	return Text(raw)
}

// IsNull reports whether the cell holds no value.
func (c Cell) IsNull() bool { return c.Kind == KindNull }

// String renders the canonical string form of the cell.
func (c Cell) String() string {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case KindDate:
		return c.Date.Format("2006-01-02")
	default:
		return ""
	}
}
