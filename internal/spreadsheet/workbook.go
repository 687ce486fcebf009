// Package spreadsheet writes generated datasets to .xlsx and reads them back
// for the HTML preview.
package spreadsheet

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// SheetName is the single sheet in every generated workbook.
const SheetName = "Clientes"

// ContentType is the MIME type of an .xlsx workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Column width bounds, in characters.
const (
	minColWidth = 8
	maxColWidth = 80
)

// Write creates a workbook at path with header on row 1 and rows below it,
// sizing each column to its longest value.
func Write(path string, header []string, rows [][]string) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	widths := make([]int, len(header))
	if err := writeRow(f, 1, header, widths); err != nil {
		return err
	}
	for i, row := range rows {
		if err := writeRow(f, i+2, row, widths); err != nil {
			return err
		}
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width := float64(min(max(w+2, minColWidth), maxColWidth))
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("set width %s: %w", col, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, rowNum int, values []string, widths []int) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
		if i < len(widths) {
			widths[i] = max(widths[i], utf8.RuneCountInString(v))
		}
	}
	if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}

// Preview is the first rows of a workbook's first sheet.
type Preview struct {
	Header []string
	Rows   [][]string
	Total  int // data rows in the sheet, excluding the header
}

// Showing is the number of data rows in the preview.
func (p Preview) Showing() int { return len(p.Rows) }

// ErrEmptyWorkbook means the workbook has no sheets or no header row.
var ErrEmptyWorkbook = errors.New("empty workbook")

// ReadPreview reopens the workbook at path and returns at most maxRows data rows
// of its first sheet. Rows are padded to the used column extent.
func ReadPreview(path string, maxRows int) (Preview, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Preview{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Preview{}, ErrEmptyWorkbook
	}
	all, err := f.GetRows(sheets[0])
	if err != nil {
		return Preview{}, fmt.Errorf("read rows: %w", err)
	}
	if len(all) == 0 {
		return Preview{}, ErrEmptyWorkbook
	}

	cols := 0
	for _, r := range all {
		cols = max(cols, len(r))
	}

	data := all[1:]
	shown := data[:min(len(data), max(maxRows, 0))]

	p := Preview{
		Header: pad(all[0], cols),
		Rows:   make([][]string, len(shown)),
		Total:  len(data),
	}
	for i, r := range shown {
		p.Rows[i] = pad(r, cols)
	}
	return p, nil
}

func pad(r []string, n int) []string {
	if len(r) >= n {
		return r
	}
	out := make([]string, n)
	copy(out, r)
	return out
}
