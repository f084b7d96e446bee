package e2e

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

// WriteXLSX writes rows under Header to a new workbook at path.
func WriteXLSX(path string, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	write := func(line int, cells []string) error {
		cell, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		return f.SetSheetRow(sheet, cell, &cells)
	}
	if err := write(1, Header); err != nil {
		return err
	}
	for i, r := range rows {
		if err := write(i+2, r.Cells()); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return f.SaveAs(path)
}

// WriteCSV writes rows under Header to path.
func WriteCSV(path string, rows []Row) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(Header)
	for _, r := range rows {
		_ = w.Write(r.Cells())
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// MinimalDOCX returns a one-paragraph .docx holding text.
func MinimalDOCX(text string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}
