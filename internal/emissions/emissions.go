// Package emissions parses the Our World in Data CO2 and greenhouse gas table
// and answers the country-level questions behind the emissions views.
package emissions

import (
	"cmp"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// ErrNoData is returned when a table has no usable country rows.
var ErrNoData = errors.New("no valid emissions data")

// Year bounds for accepted rows: (MinYear, MaxYear].
const (
	MinYear = 1900
	MaxYear = 2025
)

// Default trend window.
const (
	DefaultFromYear = 1990
	DefaultToYear   = 2023
)

// aggregates are world and regional roll-ups that would double count countries.
var aggregates = map[string]struct{}{
	"World":                         {},
	"Asia":                          {},
	"Europe":                        {},
	"Africa":                        {},
	"North America":                 {},
	"South America":                 {},
	"Oceania":                       {},
	"European Union":                {},
	"High-income countries":         {},
	"Low-income countries":          {},
	"Upper-middle-income countries": {},
	"Lower-middle-income countries": {},
}

// MajorCountries are the largest emitters used as regional proxies.
var MajorCountries = []string{
	"China", "United States", "India", "Russia", "Japan",
	"Germany", "Iran", "South Korea", "Saudi Arabia", "Indonesia",
}

// Metric names a numeric column.
type Metric string

const (
	MetricCO2          Metric = "co2"
	MetricCO2PerCapita Metric = "co2_per_capita"
	MetricCoal         Metric = "coal_co2"
	MetricOil          Metric = "oil_co2"
	MetricGas          Metric = "gas_co2"
	MetricCement       Metric = "cement_co2"
	MetricFlaring      Metric = "flaring_co2"
	MetricMethane      Metric = "methane"
	MetricNitrousOxide Metric = "nitrous_oxide"
	MetricPopulation   Metric = "population"
)

var metricLabels = map[Metric]string{
	MetricCO2:          "Total CO₂ (Mt)",
	MetricCO2PerCapita: "CO₂ per Capita (t)",
	MetricCoal:         "Coal CO₂ (Mt)",
	MetricOil:          "Oil CO₂ (Mt)",
	MetricGas:          "Gas CO₂ (Mt)",
	MetricMethane:      "Methane [incl. Agriculture] (Mt CO₂e)",
	MetricNitrousOxide: "Nitrous Oxide [incl. Fertilizers/Pesticides] (Mt CO₂e)",
}

// Label returns the display label, or the raw name for unlabelled metrics.
func (m Metric) Label() string {
	if l, ok := metricLabels[m]; ok {
		return l
	}
	return string(m)
}

// Row is one country-year. Values holds every numeric cell that was present.
type Row struct {
	Country string             `json:"country"`
	ISOCode string             `json:"iso_code,omitempty"`
	Year    int                `json:"year"`
	Values  map[Metric]float64 `json:"values"`
}

// Value returns a metric, treating absent cells as 0.
func (r Row) Value(m Metric) float64 {
	return r.Values[m]
}

// Dataset is the filtered table.
type Dataset struct {
	Rows []Row
}

// Parse reads an OWID-style CSV. Rows are kept when the year is in
// (MinYear, MaxYear], a country is named and it is not an aggregate.
func Parse(r io.Reader) (Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Dataset{}, ErrNoData
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("read emissions header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var ds Dataset
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Dataset{}, fmt.Errorf("read emissions row: %w", err)
		}
		row := Row{Values: make(map[Metric]float64)}
		for i, h := range header {
			if i >= len(rec) {
				break
			}
			cell := strings.TrimSpace(rec[i])
			switch h {
			case "country":
				row.Country = cell
			case "iso_code":
				row.ISOCode = cell
			case "year":
				row.Year, _ = strconv.Atoi(cell)
			default:
				if cell == "" {
					continue
				}
				if v, err := strconv.ParseFloat(cell, 64); err == nil {
					row.Values[Metric(h)] = v
				}
			}
		}
		if row.Country == "" || row.Year <= MinYear || row.Year > MaxYear {
			continue
		}
		if _, agg := aggregates[row.Country]; agg {
			continue
		}
		ds.Rows = append(ds.Rows, row)
	}
	if len(ds.Rows) == 0 {
		return Dataset{}, ErrNoData
	}
	return ds, nil
}

// LatestYear returns the most recent year present, or 0 for an empty dataset.
func (d Dataset) LatestYear() int {
	latest := 0
	for _, r := range d.Rows {
		latest = max(latest, r.Year)
	}
	return latest
}

// Countries returns the distinct country names in ascending order.
func (d Dataset) Countries() []string {
	set := make(map[string]struct{})
	for _, r := range d.Rows {
		set[r.Country] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}

// Summary headlines the latest year.
type Summary struct {
	Year            int     `json:"year"`
	TotalCO2        float64 `json:"total_co2"` // Mt
	TopEmitter      string  `json:"top_emitter,omitempty"`
	AvgCO2PerCapita float64 `json:"avg_co2_per_capita"` // t
	CountryCount    int     `json:"country_count"`
}

// Summary totals positive CO2 for the latest year, names the largest emitter
// and averages the positive per-capita values. CountryCount spans all years.
func (d Dataset) Summary() Summary {
	year := d.LatestYear()
	s := Summary{Year: year, CountryCount: len(d.Countries())}
	var perCapitaSum float64
	var perCapitaN int
	var top float64
	for _, r := range d.Rows {
		co2 := r.Value(MetricCO2)
		if r.Year != year || co2 <= 0 {
			continue
		}
		s.TotalCO2 += co2
		if co2 > top {
			top = co2
			s.TopEmitter = r.Country
		}
		if pc := r.Value(MetricCO2PerCapita); pc > 0 {
			perCapitaSum += pc
			perCapitaN++
		}
	}
	if perCapitaN > 0 {
		s.AvgCO2PerCapita = perCapitaSum / float64(perCapitaN)
	}
	return s
}

// Filter keeps rows for one country (empty means all) within [from, to].
func (d Dataset) Filter(country string, from, to int) Dataset {
	var out Dataset
	for _, r := range d.Rows {
		if country != "" && r.Country != country {
			continue
		}
		if r.Year < from || r.Year > to {
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

// Point is one year of a series.
type Point struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Trend returns a yearly series of positive metric values within [from, to].
// With a country the series is that country's; without one, countries are
// summed per year.
func (d Dataset) Trend(metric Metric, country string, from, to int) []Point {
	byYear := make(map[int]float64)
	for _, r := range d.Rows {
		if r.Year < from || r.Year > to {
			continue
		}
		if country != "" && r.Country != country {
			continue
		}
		if v := r.Value(metric); v > 0 {
			byYear[r.Year] += v
		}
	}
	out := make([]Point, 0, len(byYear))
	for _, y := range slices.Sorted(maps.Keys(byYear)) {
		out = append(out, Point{Year: y, Value: byYear[y]})
	}
	return out
}

// CountryValue pairs a country with a metric value.
type CountryValue struct {
	Country string  `json:"country"`
	Value   float64 `json:"value"`
}

// TopEmitters returns the n countries with the largest positive metric value
// in the latest year.
func (d Dataset) TopEmitters(metric Metric, n int) []CountryValue {
	year := d.LatestYear()
	var out []CountryValue
	for _, r := range d.Rows {
		if r.Year != year {
			continue
		}
		if v := r.Value(metric); v > 0 {
			out = append(out, CountryValue{Country: r.Country, Value: v})
		}
	}
	sortDesc(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// SourceShare is one fuel source's contribution.
type SourceShare struct {
	Source string  `json:"source"`
	Value  float64 `json:"value"`
}

var sources = []struct {
	name   string
	metric Metric
}{
	{"Coal", MetricCoal},
	{"Oil", MetricOil},
	{"Gas", MetricGas},
	{"Cement", MetricCement},
	{"Flaring", MetricFlaring},
}

// SourceBreakdown sums positive per-source CO2 in the latest year. Sources
// with no emissions are omitted.
func (d Dataset) SourceBreakdown() []SourceShare {
	year := d.LatestYear()
	var out []SourceShare
	for _, src := range sources {
		var sum float64
		for _, r := range d.Rows {
			if r.Year == year {
				if v := r.Value(src.metric); v > 0 {
					sum += v
				}
			}
		}
		if sum > 0 {
			out = append(out, SourceShare{Source: src.name, Value: sum})
		}
	}
	return out
}

// Major returns MajorCountries' latest-year values, largest first.
func (d Dataset) Major(metric Metric) []CountryValue {
	year := d.LatestYear()
	var out []CountryValue
	for _, c := range MajorCountries {
		for _, r := range d.Rows {
			if r.Country == c && r.Year == year {
				if v := r.Value(metric); v > 0 {
					out = append(out, CountryValue{Country: c, Value: v})
				}
				break
			}
		}
	}
	sortDesc(out)
	return out
}

// Table returns up to n rows from the latest year with positive CO2, largest first.
func (d Dataset) Table(n int) []Row {
	year := d.LatestYear()
	var out []Row
	for _, r := range d.Rows {
		if r.Year == year && r.Value(MetricCO2) > 0 {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b Row) int {
		return cmp.Compare(b.Value(MetricCO2), a.Value(MetricCO2))
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func sortDesc(vs []CountryValue) {
	slices.SortStableFunc(vs, func(a, b CountryValue) int {
		return cmp.Compare(b.Value, a.Value)
	})
}
