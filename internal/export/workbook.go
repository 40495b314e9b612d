// Package export renders an aggregated BOQ document into an Excel workbook:
// one sheet per titled section, a merged title row, a fixed five-column header
// and one row per line item.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/thywilljoshua/boq2xlsx/internal/boq"
)

// ErrEmptyDocument is returned instead of writing a workbook with no sections.
var ErrEmptyDocument = errors.New("nothing to export: document has no sections")

// Headers is the fixed column header row.
var Headers = []string{
	"STT (1)",
	"Mô tả công việc mời thầu (2)",
	"Yêu cầu kỹ thuật/ Chỉ dẫn kỹ thuật chính (3)",
	"Khối lượng mời thầu (4)",
	"Đơn vị tính (5)",
}

const (
	titleRow     = 1
	headerRow    = 2
	firstDataRow = 3

	descriptionWidth = 60.0
	referenceWidth   = 15.0
	widthPadding     = 2
)

var columns = []string{"A", "B", "C", "D", "E"}

// Build lays out doc in a new in-memory workbook. The caller closes it.
func Build(doc boq.Document) (*excelize.File, error) {
	if doc.Empty() {
		return nil, ErrEmptyDocument
	}

	f := excelize.NewFile()
	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	defaultSheet := f.GetSheetName(0)
	names := newSheetNamer()
	for i, sec := range doc.Sections {
		name := names.next(sec.Title)
		if i == 0 {
			err = f.SetSheetName(defaultSheet, name)
		} else {
			_, err = f.NewSheet(name)
		}
		if err == nil {
			err = writeSection(f, name, sec, st)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Write builds the workbook and atomically replaces path with it. An existing
// file keeps its permissions; a new one gets 0644.
func Write(doc boq.Document, path string) error {
	f, err := Build(doc)
	if err != nil {
		return err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("serialize workbook: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chmod workbook: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func writeSection(f *excelize.File, sheet string, sec boq.DocSection, st styles) error {
	last := columns[len(columns)-1]

	title := cellName("A", titleRow)
	if err := f.SetCellValue(sheet, title, fmt.Sprintf("%d. %s", sec.MainIndex, sec.Title)); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, title, cellName(last, titleRow)); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, title, cellName(last, titleRow), st.title); err != nil {
		return err
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, cellName("A", headerRow), &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, cellName("A", headerRow), cellName(last, headerRow), st.header); err != nil {
		return err
	}

	widths := make([]int, len(columns))
	observe := func(col int, s string) {
		if n := utf8.RuneCountInString(s); n > widths[col] {
			widths[col] = n
		}
	}
	for i, h := range Headers {
		observe(i, h)
	}

	rowStyles := []int{st.id, st.text, st.text, st.number, st.unit}
	for i, r := range sec.Rows {
		row := firstDataRow + i
		values, rendered := rowValues(r)
		for c, v := range values {
			cell := cellName(columns[c], row)
			if v != nil {
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return err
				}
			}
			if err := f.SetCellStyle(sheet, cell, cell, rowStyles[c]); err != nil {
				return err
			}
			observe(c, rendered[c])
		}
	}

	for c, col := range columns {
		w := float64(widths[c] + widthPadding)
		switch col {
		case "B":
			w = descriptionWidth
		case "C":
			w = referenceWidth
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

// rowValues returns the cell values (nil for a blank cell) and their rendered text.
func rowValues(r boq.Row) ([]any, []string) {
	values := make([]any, len(columns))
	rendered := make([]string, len(columns))

	values[1], rendered[1] = r.Description, r.Description
	values[4], rendered[4] = r.Unit, r.Unit
	if r.Blank() {
		return values, rendered
	}

	values[0], rendered[0] = r.SubID, r.SubID
	if r.Reference != "" {
		values[2], rendered[2] = r.Reference, r.Reference
	}
	if r.Quantity.Valid {
		values[3] = r.Quantity.Decimal.InexactFloat64()
		rendered[3] = r.Quantity.Decimal.String()
	}
	return values, rendered
}

func cellName(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
