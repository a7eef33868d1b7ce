package emissions

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// ExportColumns are written by WriteCSV in order.
var ExportColumns = []string{"country", "year", "co2", "co2_per_capita", "coal_co2", "oil_co2", "gas_co2", "population"}

// WriteCSV writes rows with ExportColumns. Absent or zero values are left blank.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(ExportColumns))
	for _, r := range rows {
		rec[0] = r.Country
		rec[1] = strconv.Itoa(r.Year)
		for i, col := range ExportColumns[2:] {
			rec[i+2] = ""
			if v := r.Value(Metric(col)); v != 0 {
				rec[i+2] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
