package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned when the source file is neither a
// spreadsheet nor a delimited text file. It is the only hard load failure.
var ErrUnsupportedFormat = errors.New("unsupported format: use .xlsx/.xls or .csv")

// ErrNoSource is returned when no file was supplied and no default file
// exists in the data directory.
var ErrNoSource = errors.New("no source file available")

// Load reads a tabular source into a Dataset. The format is chosen by the
// file extension: .csv with delimiter auto-detection, .xlsx/.xls via the
// first sheet. Anything else fails with ErrUnsupportedFormat and no
// partial dataset.
func Load(name string, r io.Reader) (*Dataset, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return loadCSV(name, r)
	case ".xlsx", ".xls":
		return loadXLSX(name, r)
	default:
		return nil, fmt.Errorf("%w (got %q)", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// LoadFile opens and loads a file from disk.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(filepath.Base(path), f)
}

func loadCSV(name string, r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read headers: %v", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Skip malformed rows rather than failing the whole load.
			continue
		}
		rows = append(rows, record)
	}

	return New(name, headers, rows), nil
}

// detectDelimiter picks the separator that splits the first line into the
// most fields. Quoted commas can fool a naive count, so candidates are
// counted outside quotes.
func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}

	best, bestCount := ',', 0
	for _, cand := range []byte{',', ';', '\t'} {
		count := 0
		inQuotes := false
		for _, b := range line {
			switch {
			case b == '"':
				inQuotes = !inQuotes
			case b == cand && !inQuotes:
				count++
			}
		}
		if count > bestCount {
			best, bestCount = rune(cand), count
		}
	}
	return best
}

func loadXLSX(name string, r io.Reader) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %v", sheets[0], err)
	}
	if len(rows) == 0 {
		return New(name, nil, nil), nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	return New(name, headers, rows[1:]), nil
}

// DiscoverLocal finds the default source file in dir: servidores.xlsx if
// present, otherwise the first .xlsx in lexical order. Returns ErrNoSource
// when the directory has no candidate.
func DiscoverLocal(dir string) (string, error) {
	preferred := filepath.Join(dir, "servidores.xlsx")
	if _, err := os.Stat(preferred); err == nil {
		return preferred, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.xlsx"))
	if err != nil || len(matches) == 0 {
		return "", ErrNoSource
	}
	sort.Strings(matches)
	return matches[0], nil
}
