// Package excel exports uncertainty reports as xlsx workbooks.
package excel

import (
	"fmt"
	"io"

	"github.com/elstanto/muncon/domain/usnp"
	"github.com/elstanto/muncon/internal/report"

	"github.com/xuri/excelize/v2"
)

// Writer builds workbooks with a Mean, an Uncertainty and a Summary sheet.
// Frequencies are written in Unit.
type Writer struct {
	Unit usnp.FrequencyUnit
}

// NewWriter creates a workbook writer.
func NewWriter(unit usnp.FrequencyUnit) *Writer {
	return &Writer{Unit: unit}
}

// Workbook lays r out in a new file.
func (w *Writer) Workbook(r *report.Report) (*excelize.File, error) {
	f := excelize.NewFile()

	freqHeader := fmt.Sprintf("Frequency (%s)", w.Unit)
	headers := []string{freqHeader}
	for _, c := range r.Columns {
		headers = append(headers, c.Label)
	}

	freqs := make([]float64, len(r.Frequencies))
	for i, hz := range r.Frequencies {
		v, err := w.Unit.FromHz(hz)
		if err != nil {
			return nil, err
		}
		freqs[i] = v
	}

	if err := f.SetSheetName("Sheet1", SheetMean); err != nil {
		return nil, err
	}
	if err := writeTable(f, SheetMean, headers, freqs, r.Columns, func(c report.Column) []float64 { return c.Mean }); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(SheetUncertainty); err != nil {
		return nil, err
	}
	if err := writeTable(f, SheetUncertainty, headers, freqs, r.Columns, func(c report.Column) []float64 { return c.Uncertainty }); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return nil, err
	}
	if err := writeSummary(f, r.Summaries); err != nil {
		return nil, err
	}
	return f, nil
}

// Write streams the workbook for r to out.
func (w *Writer) Write(out io.Writer, r *report.Report) error {
	f, err := w.Workbook(r)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(out)
}

// SaveAs writes the workbook for r to path.
func (w *Writer) SaveAs(path string, r *report.Report) error {
	f, err := w.Workbook(r)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

func writeTable(f *excelize.File, sheet string, headers []string, freqs []float64, cols []report.Column, values func(report.Column) []float64) error {
	if err := setRow(f, sheet, 1, toAny(headers)); err != nil {
		return err
	}
	for i, freq := range freqs {
		row := []any{freq}
		for _, c := range cols {
			row = append(row, values(c)[i])
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(f *excelize.File, summaries []report.Summary) error {
	if err := setRow(f, SheetSummary, 1, []any{"Component", "Mean", "Median", "Min", "Max"}); err != nil {
		return err
	}
	for i, s := range summaries {
		if err := setRow(f, SheetSummary, i+2, []any{s.Label, s.Mean, s.Median, s.Min, s.Max}); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// ReadSheet reads one worksheet of an xlsx file as text.
func ReadSheet(path, sheet string) (*SheetData, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return &SheetData{}, nil
	}
	return &SheetData{Headers: rows[0], Rows: rows[1:]}, nil
}
