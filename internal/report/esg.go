package report

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"github.com/couchcryptid/sterileloop/internal/impact"
)

// ESGRows returns the exported metric table: a header then one metric per row.
func ESGRows(in impact.ESGInputs, r impact.ESGReport) [][]string {
	return [][]string{
		{"metric", "value", "units"},
		{"farms", formatNumber(in.Farms), "count"},
		{"acres", formatNumber(in.Acres), "acres"},
		{"pesticide_avoided_lbs", formatNumber(r.PesticideAvoidedLbs), "lbs/year"},
		{"ghg_avoided", formatNumber(r.TotalGHGAvoidedTonnes), "tCO2e/year"},
		{"water_saved_gallons", formatNumber(r.WaterSavedGallons), "gallons/year"},
		{"food_saved_tons", formatNumber(r.LossAvoidedTons), "tons/year"},
	}
}

// WriteESGCSV writes the metric table with every cell quoted.
func WriteESGCSV(w io.Writer, in impact.ESGInputs, r impact.ESGReport) error {
	rows := ESGRows(in, r)
	lines := make([]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
		}
		lines[i] = strings.Join(cells, ",")
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n"))
	return err
}

// WriteESGPDF writes a one-page A4 report with the headline figures and both
// ESG charts.
func WriteESGPDF(w io.Writer, in impact.ESGInputs, r impact.ESGReport) error {
	charts, err := RenderESGCharts(r)
	if err != nil {
		return err
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("SterileLoop Sustainability Impact Report", true)
	pdf.SetCreator("sterileloop", true)
	pdf.AddPage()

	const left = 40.0
	y := 40.0
	text := func(size, advance float64, s string) {
		pdf.SetFont("Helvetica", "", size)
		pdf.Text(left, y, tr(s))
		y += advance
	}

	text(18, 24, "SterileLoop: Sustainability Impact Report")
	text(11, 18, fmt.Sprintf("Farms: %s    Acres: %s    Production: %s t/yr",
		formatNumber(in.Farms), formatNumber(in.Acres), formatNumber(in.ProductionTons)))
	text(11, 14, fmt.Sprintf("Pesticide avoided: %s lbs/yr", formatNumber(r.PesticideAvoidedLbs)))
	text(11, 14, fmt.Sprintf("GHG avoided: %s t CO2e/yr    (%s cars/yr)",
		formatNumber(r.TotalGHGAvoidedTonnes), formatNumber(r.CarsEquivalent)))
	text(11, 14, fmt.Sprintf("Water saved: %s gallons/yr", groupThousands(r.WaterSavedGallons)))
	text(11, 18, fmt.Sprintf("Sustainability score: %d / 100", r.SustainabilityScore))

	for i, img := range [][]byte{charts.GHG, charts.Hub} {
		name := "chart" + strconv.Itoa(i)
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img))
		pdf.ImageOptions(name, left, y, 500, 180, false, opts, 0, "")
		y += 190
	}

	text(10, 0, "Generated by SterileLoop. Report "+r.ID)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// formatNumber renders a float in its shortest decimal form, so whole
// numbers carry no decimal point.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// groupThousands renders a whole number with comma separators, e.g. 1,500,000.
func groupThousands(v float64) string {
	s := strconv.FormatFloat(v, 'f', 0, 64)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
