package emissions

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadSample(t *testing.T) Dataset {
	t.Helper()
	f, err := os.Open("testdata/owid-co2-sample.csv")
	require.NoError(t, err)
	defer f.Close()

	ds, err := Parse(f)
	require.NoError(t, err)
	return ds
}

func TestParse(t *testing.T) {
	ds := loadSample(t)

	assert.Len(t, ds.Rows, 6)
	assert.Equal(t, []string{"Bonaire, Sint Eustatius and Saba", "China", "India", "Tuvalu", "United States"}, ds.Countries())
	assert.Equal(t, 2022, ds.LatestYear())

	china := ds.Rows[1]
	assert.Equal(t, "CHN", china.ISOCode)
	assert.InDelta(t, 5.5, china.Value(MetricFlaring), 1e-9)
	assert.NotContains(t, ds.Rows[0].Values, MetricFlaring)
}

func TestParse_NoValidRows(t *testing.T) {
	_, err := Parse(strings.NewReader("country,year,co2\nWorld,2020,1\nOld,1900,2\n"))
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Parse(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSummary(t *testing.T) {
	s := loadSample(t).Summary()

	assert.Equal(t, 2022, s.Year)
	assert.InDelta(t, 11396.8+5057.3+2829.6+0.1, s.TotalCO2, 1e-6)
	assert.Equal(t, "China", s.TopEmitter)
	assert.InDelta(t, (7.99+14.95+2.0+3.68)/4, s.AvgCO2PerCapita, 1e-9)
	assert.Equal(t, 5, s.CountryCount)
}

func TestTrend(t *testing.T) {
	ds := loadSample(t)

	t.Run("single country", func(t *testing.T) {
		got := ds.Trend(MetricCO2, "China", DefaultFromYear, DefaultToYear)
		assert.Equal(t, []Point{{Year: 2021, Value: 11472.4}, {Year: 2022, Value: 11396.8}}, got)
	})

	t.Run("world sum", func(t *testing.T) {
		got := ds.Trend(MetricCoal, "", 2022, 2022)
		require.Len(t, got, 1)
		assert.InDelta(t, 8070.0+1044.0+1800.0, got[0].Value, 1e-9)
	})

	t.Run("window excludes years", func(t *testing.T) {
		assert.Empty(t, ds.Trend(MetricCO2, "China", 1990, 2000))
	})
}

func TestTopEmitters(t *testing.T) {
	got := loadSample(t).TopEmitters(MetricCO2PerCapita, 2)

	assert.Equal(t, []CountryValue{{"United States", 14.95}, {"China", 7.99}}, got)
}

func TestSourceBreakdown(t *testing.T) {
	got := loadSample(t).SourceBreakdown()

	require.Len(t, got, 5)
	assert.Equal(t, "Coal", got[0].Source)
	assert.InDelta(t, 10914.0, got[0].Value, 1e-9)
	assert.Equal(t, SourceShare{Source: "Flaring", Value: 89.5}, got[4])
}

func TestMajor(t *testing.T) {
	got := loadSample(t).Major(MetricCO2)

	require.Len(t, got, 3)
	assert.Equal(t, "China", got[0].Country)
	assert.Equal(t, "India", got[2].Country)
}

func TestTable(t *testing.T) {
	ds := loadSample(t)

	rows := ds.Table(20)
	require.Len(t, rows, 4)
	assert.Equal(t, "China", rows[0].Country)

	assert.Len(t, ds.Filter("India", 1990, 2023).Table(20), 1)
	assert.Len(t, ds.Table(2), 2)
}

func TestMetricLabel(t *testing.T) {
	assert.Equal(t, "Total CO₂ (Mt)", MetricCO2.Label())
	assert.Equal(t, "population", MetricPopulation.Label())
}

func TestWriteCSV(t *testing.T) {
	ds := loadSample(t).Filter("United States", 2022, 2022)
	var buf bytes.Buffer

	require.NoError(t, WriteCSV(&buf, ds.Rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "country,year,co2,co2_per_capita,coal_co2,oil_co2,gas_co2,population", lines[0])
	assert.Equal(t, "United States,2022,5057.3,14.95,1044,2270,1717,338289856", lines[1])
}
