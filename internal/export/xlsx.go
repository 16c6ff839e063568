package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/verte-zerg/triviadash/internal/stats"
)

const (
	categoriesSheet = "Categories"
	difficultySheet = "Difficulty"
	defaultSheet    = "Sheet1"
)

// WriteXLSX saves r as a workbook with a per-category sheet and a difficulty sheet.
func WriteXLSX(path string, r stats.Report) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	f.SetSheetName(defaultSheet, categoriesSheet)
	if _, err := f.NewSheet(difficultySheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	if err := writeRows(f, categoriesSheet, categoryRows(r)); err != nil {
		return err
	}
	if err := writeRows(f, difficultySheet, difficultyRows(r)); err != nil {
		return err
	}
	if err := f.SetColWidth(categoriesSheet, "B", "B", 40); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func categoryRows(r stats.Report) [][]any {
	rows := [][]any{{"ID", "Category", "Total", "Easy", "Medium", "Hard"}}
	names := make(map[int]string, len(r.Bars))
	for _, b := range r.Bars {
		names[b.CategoryID] = b.Name
	}
	for _, c := range r.Counts {
		name, ok := names[c.CategoryID]
		if !ok {
			name = stats.CategoryName(r.Categories, c.CategoryID)
		}
		rows = append(rows, []any{c.CategoryID, name, c.Counts.Total, c.Counts.Easy, c.Counts.Medium, c.Counts.Hard})
	}
	return rows
}

func difficultyRows(r stats.Report) [][]any {
	rows := [][]any{{"Difficulty", "Questions", "Share"}}
	total := 0
	for _, s := range r.Difficulty {
		rows = append(rows, []any{string(s.Difficulty), s.Value, s.Percent / 100})
		total += s.Value
	}
	share := 0.0
	if total > 0 {
		share = 1
	}
	rows = append(rows, []any{"total", total, share})
	return rows
}
