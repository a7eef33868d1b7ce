package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/couchcryptid/sterileloop/internal/domain"
	"github.com/couchcryptid/sterileloop/internal/overlay"
	"github.com/xuri/excelize/v2"
)

// ErrNothingToRender is returned when the input has no rows or features.
var ErrNothingToRender = errors.New("nothing to render")

const (
	sheetTotals  = "State Totals"
	sheetByYear  = "By Year"
	sheetOverlay = "Overlay"
)

// WriteWorkbook writes an XLSX workbook with three sheets: all-years state
// totals, a state by year matrix and the drawn overlay features.
func WriteWorkbook(w io.Writer, snap domain.Snapshot, features []overlay.Feature) error {
	ds := snap.Dataset
	if ds.Empty() {
		return ErrNothingToRender
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetTotals); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{sheetByYear, sheetOverlay} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}
	}

	if err := writeTotals(f, ds); err != nil {
		return err
	}
	if err := writeByYear(f, ds); err != nil {
		return err
	}
	if err := writeOverlay(f, features); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeTotals(f *excelize.File, ds domain.Dataset) error {
	rows := [][]any{{"State", "Total (kg)", "Total (lbs)", "Records", "Top compound", "Top year"}}
	for _, sv := range ds.TopStates(0) {
		d, _ := ds.Detail(sv.State)
		var topYear any
		if d.TopYear != 0 {
			topYear = d.TopYear
		}
		rows = append(rows, []any{
			sv.State,
			sv.Value,
			math.Round(sv.Value * domain.LbsPerKg),
			d.Records,
			d.TopCompound,
			topYear,
		})
	}
	if err := setRows(f, sheetTotals, rows); err != nil {
		return err
	}
	return f.SetColWidth(sheetTotals, "A", "F", 16)
}

func writeByYear(f *excelize.File, ds domain.Dataset) error {
	years := ds.Years.Sorted()
	header := []any{"State"}
	perYear := make([]map[string]float64, len(years))
	for i, y := range years {
		header = append(header, strconv.Itoa(y))
		perYear[i] = ds.YearTotals(y)
	}
	rows := [][]any{header}
	for _, state := range ds.StateNames() {
		row := []any{state}
		for i := range years {
			if v, ok := perYear[i][state]; ok {
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}
		rows = append(rows, row)
	}
	return setRows(f, sheetByYear, rows)
}

func writeOverlay(f *excelize.File, features []overlay.Feature) error {
	rows := [][]any{{"State", "Latitude", "Longitude", "Value (kg)", "Radius", "Color"}}
	for _, ft := range features {
		rows = append(rows, []any{
			ft.State,
			ft.Center.Lat,
			ft.Center.Lng,
			ft.Value,
			ft.Radius,
			ft.Color.String(),
		})
	}
	if err := setRows(f, sheetOverlay, rows); err != nil {
		return err
	}
	return f.SetColWidth(sheetOverlay, "A", "F", 16)
}

// setRows writes rows starting at A1. Nil cells are left empty.
func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}
