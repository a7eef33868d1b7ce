package report

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"

	"github.com/couchcryptid/sterileloop/internal/domain"
	"github.com/couchcryptid/sterileloop/internal/impact"
	"github.com/couchcryptid/sterileloop/internal/overlay"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	// Chart palette shared with the ESG PDF.
	ghgPesticideColor = color.RGBA{R: 0x16, G: 0xa3, B: 0x4a, A: 255}
	ghgFoodColor      = color.RGBA{R: 0x86, G: 0xef, B: 0xac, A: 255}
)

// DefaultHubCount is the length of the hub scaling projection.
const DefaultHubCount = 100

// RenderYearChart draws one bar per state for the given year as a PNG. Bars
// are ordered by value and coloured with the overlay intensity scale. Year 0,
// or a year the dataset has never seen, charts all-years totals.
func RenderYearChart(w io.Writer, snap domain.Snapshot, year int) error {
	features := overlay.Build(snap, overlay.View{Year: year}, domain.PixelScale)
	if len(features) == 0 {
		return ErrNothingToRender
	}

	p := plot.New()
	p.Title.Text = "Pesticide use by state, all years"
	if year != 0 && snap.Dataset.Years.Has(year) {
		p.Title.Text = "Pesticide use by state, " + strconv.Itoa(year)
	}
	p.Y.Label.Text = "kg"
	p.Y.Min = 0

	labels := make([]string, len(features))
	for i, f := range features {
		bars, err := plotter.NewBarChart(plotter.Values{f.Value}, vg.Points(14))
		if err != nil {
			return fmt.Errorf("bar for %s: %w", f.State, err)
		}
		bars.XMin = float64(i)
		bars.Color = f.Color.RGBA()
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
		labels[i] = stateLabel(f.State)
	}
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 3
	p.X.Tick.Label.YAlign = draw.YCenter
	p.X.Tick.Label.XAlign = draw.XRight

	width := math.Max(8, float64(len(features))*0.3)
	return savePNG(w, p, vg.Length(width)*vg.Inch, 5*vg.Inch)
}

// RenderGHGChart draws the two GHG sources of an ESG report as a bar chart.
func RenderGHGChart(w io.Writer, r impact.ESGReport) error {
	p := plot.New()
	p.Title.Text = "GHG avoided (t CO2e)"
	p.Y.Min = 0

	values := []float64{r.GHGFromPesticideTonnes, r.GHGFromFoodTonnes}
	colors := []color.Color{ghgPesticideColor, ghgFoodColor}
	for i, v := range values {
		bars, err := plotter.NewBarChart(plotter.Values{v}, vg.Points(60))
		if err != nil {
			return fmt.Errorf("ghg bar: %w", err)
		}
		bars.XMin = float64(i)
		bars.Color = colors[i]
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
	}
	p.NominalX("Pesticide", "Avoided food waste")
	return savePNG(w, p, 7*vg.Inch, 2.5*vg.Inch)
}

// RenderHubChart draws the linear hub scaling projection as a line chart.
func RenderHubChart(w io.Writer, r impact.ESGReport, hubs int) error {
	series := r.HubScaling(hubs)
	if len(series) == 0 {
		return ErrNothingToRender
	}
	xys := make(plotter.XYs, len(series))
	for i, pt := range series {
		xys[i].X = float64(pt.Hubs)
		xys[i].Y = pt.TotalGHGAvoidedTonnes
	}

	p := plot.New()
	p.Title.Text = "Total GHG avoided by number of hubs"
	p.X.Label.Text = "Number of hubs"
	p.Y.Label.Text = "t CO2e avoided"

	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("hub line: %w", err)
	}
	line.Color = ghgPesticideColor
	line.Width = vg.Points(2)
	p.Add(line, plotter.NewGrid())
	return savePNG(w, p, 7*vg.Inch, 2.5*vg.Inch)
}

// ESGCharts holds the two rendered ESG charts as PNG bytes.
type ESGCharts struct {
	GHG []byte
	Hub []byte
}

// RenderESGCharts renders both ESG charts into memory.
func RenderESGCharts(r impact.ESGReport) (ESGCharts, error) {
	var ghg, hub bytes.Buffer
	if err := RenderGHGChart(&ghg, r); err != nil {
		return ESGCharts{}, err
	}
	if err := RenderHubChart(&hub, r, DefaultHubCount); err != nil {
		return ESGCharts{}, err
	}
	return ESGCharts{GHG: ghg.Bytes(), Hub: hub.Bytes()}, nil
}

func savePNG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}

// stateLabel prefers the two-letter abbreviation so long state lists stay readable.
func stateLabel(state string) string {
	if abbr, ok := domain.StateAbbreviation(state); ok {
		return abbr
	}
	return state
}
