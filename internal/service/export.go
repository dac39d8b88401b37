package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the single sheet exported spreadsheets carry.
const SheetName = "Servidores"

// ExportService serializes a filtered view with its original headers.
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

// WriteCSV writes the view as comma-separated UTF-8 text: original
// headers first, then canonical cell strings.
func (s *ExportService) WriteCSV(w io.Writer, v View) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(v.Dataset.OriginalHeaders()); err != nil {
		return fmt.Errorf("write header: %v", err)
	}
	record := make([]string, len(v.Dataset.Columns))
	for _, i := range v.Indices {
		row := v.Dataset.Rows[i]
		for j := range v.Dataset.Columns {
			if j < len(row) {
				record[j] = row[j].String()
			} else {
				record[j] = ""
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row: %v", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteXLSX builds a spreadsheet with a single named sheet holding the
// same data as the CSV export and returns its bytes.
func (s *ExportService) WriteXLSX(v View) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %v", err)
	}

	headers := v.Dataset.OriginalHeaders()
	headerRow := make([]interface{}, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &headerRow); err != nil {
		return nil, fmt.Errorf("write header: %v", err)
	}

	for n, i := range v.Indices {
		row := v.Dataset.Rows[i]
		record := make([]interface{}, len(v.Dataset.Columns))
		for j := range v.Dataset.Columns {
			if j < len(row) {
				record[j] = row[j].String()
			} else {
				record[j] = ""
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, cell, &record); err != nil {
			return nil, fmt.Errorf("write row %d: %v", n+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize spreadsheet: %v", err)
	}
	return buf.Bytes(), nil
}
