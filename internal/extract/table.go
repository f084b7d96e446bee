package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// IsTable reports whether ext names a supported glossary spreadsheet format.
func IsTable(ext string) bool {
	switch strings.ToLower(ext) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// Rows returns the rows of a CSV file or the first sheet of an XLSX workbook.
func Rows(r io.Reader, ext string) ([][]string, error) {
	switch strings.ToLower(ext) {
	case ".csv":
		return csvRows(r)
	case ".xlsx":
		return excelRows(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
}

func csvRows(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

func excelRows(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read Excel: %w", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}
