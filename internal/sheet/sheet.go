// Package sheet reads and writes the tabular files the attendance tools
// exchange with the dispatch dashboard: .xlsx workbooks and .csv exports.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither .xlsx nor .csv.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrEmpty is returned when a file has no header row.
var ErrEmpty = errors.New("file is empty")

// Table is a header row plus data rows. Every row is padded to the header length.
type Table struct {
	Header []string
	Rows   [][]string
	Lines  []int // 1-based file row of each entry in Rows
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Picture is a PNG image anchored at a cell and scaled to Width x Height pixels.
type Picture struct {
	Cell   string
	Data   []byte
	Width  int
	Height int
}

// Supported reports whether path has an extension Read understands.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".csv":
		return true
	}
	return false
}

// Read loads the first sheet of an .xlsx file or a whole .csv file.
func Read(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(path)
	case ".csv":
		return ReadCSV(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// ReadXLSX loads the first sheet of a workbook.
func ReadXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrEmpty, filepath.Base(path))
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	lines := make([]int, len(rows))
	for i := range rows {
		lines[i] = i + 1
	}
	return newTable(rows, lines, path)
}

// ReadCSV loads a comma separated file with a header row.
func ReadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	var lines []int
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv: %w", err)
		}
		line, _ := r.FieldPos(0)
		rows = append(rows, record)
		lines = append(lines, line)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return newTable(rows, lines, path)
}

// newTable drops blank rows and keeps the file row number of the rest.
func newTable(rows [][]string, lines []int, path string) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, filepath.Base(path))
	}

	t := &Table{Header: rows[0]}
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		padded := make([]string, max(len(t.Header), len(row)))
		copy(padded, row)
		t.Rows = append(t.Rows, padded[:len(t.Header)])
		t.Lines = append(t.Lines, lines[i+1])
	}
	return t, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// StringRows converts string rows for WriteXLSX.
func StringRows(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, c := range row {
			cells[j] = c
		}
		out[i] = cells
	}
	return out
}

// WriteXLSX writes a single-sheet workbook. When pic is non-nil the image is
// embedded at pic.Cell.
func WriteXLSX(path string, header []string, rows [][]any, pic *Picture) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if pic != nil {
		if err := addPicture(f, sheet, pic); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func addPicture(f *excelize.File, sheet string, pic *Picture) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(pic.Data))
	if err != nil {
		return fmt.Errorf("failed to decode picture: %w", err)
	}

	opts := &excelize.GraphicOptions{ScaleX: 1, ScaleY: 1}
	if pic.Width > 0 && cfg.Width > 0 {
		opts.ScaleX = float64(pic.Width) / float64(cfg.Width)
	}
	if pic.Height > 0 && cfg.Height > 0 {
		opts.ScaleY = float64(pic.Height) / float64(cfg.Height)
	}

	err = f.AddPictureFromBytes(sheet, pic.Cell, &excelize.Picture{
		Extension: ".png",
		File:      pic.Data,
		Format:    opts,
	})
	if err != nil {
		return fmt.Errorf("failed to embed picture at %s: %w", pic.Cell, err)
	}
	return nil
}
