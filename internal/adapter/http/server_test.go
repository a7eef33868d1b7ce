package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/sterileloop/internal/adapter/http"
	"github.com/couchcryptid/sterileloop/internal/domain"
	"github.com/couchcryptid/sterileloop/internal/emissions"
	"github.com/couchcryptid/sterileloop/internal/impact"
	"github.com/couchcryptid/sterileloop/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type stubStore struct {
	snap domain.Snapshot
	ok   bool
}

func (s stubStore) Current() (domain.Snapshot, bool) { return s.snap, s.ok }

type countingReloader struct {
	calls atomic.Int64
}

func (r *countingReloader) Reload() { r.calls.Add(1) }

type stubGeocoder struct {
	result domain.GeocodingResult
	err    error
}

func (g stubGeocoder) ForwardGeocode(context.Context, string) (domain.GeocodingResult, error) {
	return g.result, g.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSnapshot(t *testing.T) domain.Snapshot {
	t.Helper()
	ds := domain.NewDataset([]domain.UsageRecord{
		{State: "Iowa", Year: 2014, Compound: "Atrazine", CropTotals: map[string]float64{"Corn": 400}},
		{State: "Iowa", Year: 2015, Compound: "Glyphosate", CropTotals: map[string]float64{"Corn": 500}},
		{State: "Texas", Year: 2015, Compound: "Atrazine", CropTotals: map[string]float64{"Cotton": 5000}},
	})
	centroids := make(map[string]domain.LatLng)
	for _, s := range ds.StateNames() {
		c, ok := domain.LookupCentroid(s)
		require.True(t, ok)
		centroids[s] = c
	}
	return domain.Snapshot{
		Dataset:   ds,
		Centroids: centroids,
		Source:    "usage.tsv",
		LoadedAt:  time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
	}
}

var testProviders = []domain.GeoProvider{
	{ID: "des-moines", Name: "Des Moines Release", Lat: 41.59, Lng: -93.62, Services: []string{"SIT"}},
	{ID: "austin", Name: "Austin Sterile", Lat: 30.27, Lng: -97.74},
	{ID: "broken", Name: "Broken Row", Lat: math.NaN(), Lng: -80},
}

type fixture struct {
	server   *httpadapter.Server
	reloader *countingReloader
	metrics  *observability.Metrics
}

type option func(*httpadapter.Deps)

func newFixture(t *testing.T, opts ...option) fixture {
	t.Helper()
	f := fixture{reloader: &countingReloader{}, metrics: observability.NewMetricsForTesting()}
	deps := httpadapter.Deps{
		Snapshots:   stubStore{snap: testSnapshot(t), ok: true},
		Reloader:    f.reloader,
		Providers:   testProviders,
		Assumptions: impact.DefaultAssumptions(),
		Metrics:     f.metrics,
		Logger:      discardLogger(),
		Clock:       clockwork.NewFakeClockAt(time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	api := httpadapter.NewAPI(deps)
	f.server = httpadapter.NewServer(":0", &mockReadiness{}, api, discardLogger())
	return f
}

func withEmissions(t *testing.T) option {
	return func(d *httpadapter.Deps) {
		f, err := os.Open("../../emissions/testdata/owid-co2-sample.csv")
		require.NoError(t, err)
		defer f.Close()
		ds, err := emissions.Parse(f)
		require.NoError(t, err)
		d.Emissions = &ds
	}
}

func (f fixture) do(t *testing.T, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(method, target, body))
	return rec
}

func (f fixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, http.MethodGet, target, nil)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	assert.Equal(t, status, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.NotEmpty(t, body["error"])
}

// --- health ---

func TestHealthzReturns200(t *testing.T) {
	rec := newFixture(t).get(t, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])
}

func TestReadyz(t *testing.T) {
	srv := httpadapter.NewServer(":0", &mockReadiness{}, nil, discardLogger())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode[map[string]string](t, rec)["status"])

	srv = httpadapter.NewServer(":0", &mockReadiness{err: fmt.Errorf("no dataset has been published yet")}, nil, discardLogger())
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no dataset has been published yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := newFixture(t).get(t, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestAPIRoutesAbsentWithoutAPI(t *testing.T) {
	srv := httpadapter.NewServer(":0", &mockReadiness{}, nil, discardLogger())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/years", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- dataset and overlay ---

func TestNoSnapshotReturns503(t *testing.T) {
	f := newFixture(t, func(d *httpadapter.Deps) { d.Snapshots = stubStore{} })

	for _, target := range []string{
		"/api/v1/years",
		"/api/v1/states",
		"/api/v1/states/Iowa",
		"/api/v1/overlay",
		"/api/v1/export/overlay.xlsx",
	} {
		t.Run(target, func(t *testing.T) {
			assertError(t, f.get(t, target), http.StatusServiceUnavailable)
		})
	}
}

func TestYears(t *testing.T) {
	rec := newFixture(t).get(t, "/api/v1/years")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{2014, 2015}, decode[map[string][]int](t, rec)["years"])
}

func TestStates_OrderedByTotal(t *testing.T) {
	rec := newFixture(t).get(t, "/api/v1/states")
	require.Equal(t, http.StatusOK, rec.Code)

	type state struct {
		State        string         `json:"state"`
		Abbreviation string         `json:"abbreviation"`
		Total        float64        `json:"total"`
		Center       *domain.LatLng `json:"center"`
	}
	states := decode[[]state](t, rec)
	require.Len(t, states, 2)
	assert.Equal(t, "Texas", states[0].State)
	assert.Equal(t, "TX", states[0].Abbreviation)
	assert.InDelta(t, 5000, states[0].Total, 0)
	assert.NotNil(t, states[0].Center)
	assert.Equal(t, "Iowa", states[1].State)
}

func TestStateDetail(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/v1/states/iowa")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		State       string  `json:"state"`
		Total       float64 `json:"total"`
		TopCompound string  `json:"top_compound"`
		TopYear     int     `json:"top_year"`
		Records     int     `json:"records"`
		ByYear      []struct {
			Year  int     `json:"year"`
			Value float64 `json:"value"`
		} `json:"by_year"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Iowa", body.State)
	assert.InDelta(t, 900, body.Total, 0)
	assert.Equal(t, "Glyphosate", body.TopCompound)
	assert.Equal(t, 2015, body.TopYear)
	assert.Equal(t, 2, body.Records)
	require.Len(t, body.ByYear, 2)
	assert.Equal(t, 2014, body.ByYear[0].Year)

	assertError(t, f.get(t, "/api/v1/states/Atlantis"), http.StatusNotFound)
}

func TestSummary(t *testing.T) {
	rec := newFixture(t).get(t, "/api/v1/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	s := decode[domain.Summary](t, rec)
	assert.Equal(t, []string{"Iowa", "Texas"}, s.States)
	assert.InDelta(t, 400, s.ByStateYear["2014"]["Iowa"], 0)
}

type overlayBody struct {
	Source   string `json:"source"`
	Year     int    `json:"year"`
	State    string `json:"state"`
	Features []struct {
		State  string  `json:"state"`
		Value  float64 `json:"value"`
		Radius float64 `json:"radius"`
		Color  string  `json:"color"`
	} `json:"features"`
}

func TestOverlay(t *testing.T) {
	f := newFixture(t)

	t.Run("all years in meters", func(t *testing.T) {
		rec := f.get(t, "/api/v1/overlay")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[overlayBody](t, rec)
		assert.Equal(t, "usage.tsv", body.Source)
		require.Len(t, body.Features, 2)
		assert.Equal(t, "Texas", body.Features[0].State)
		assert.InDelta(t, domain.MeterScale.MaxRadius, body.Features[0].Radius, 0)
		assert.True(t, strings.HasPrefix(body.Features[0].Color, "hsl("), body.Features[0].Color)
	})

	t.Run("one year in pixels", func(t *testing.T) {
		body := decode[overlayBody](t, f.get(t, "/api/v1/overlay?year=2014&scale=pixels"))
		assert.Equal(t, 2014, body.Year)
		require.Len(t, body.Features, 1)
		assert.Equal(t, "Iowa", body.Features[0].State)
		assert.InDelta(t, domain.PixelScale.MaxRadius, body.Features[0].Radius, 0)
	})

	t.Run("unseen year falls back to totals", func(t *testing.T) {
		body := decode[overlayBody](t, f.get(t, "/api/v1/overlay?year=1999"))
		assert.Zero(t, body.Year)
		assert.Len(t, body.Features, 2)
	})

	t.Run("state filter keeps global scale", func(t *testing.T) {
		body := decode[overlayBody](t, f.get(t, "/api/v1/overlay?state=iowa"))
		assert.Equal(t, "Iowa", body.State)
		require.Len(t, body.Features, 1)
		assert.Less(t, body.Features[0].Radius, domain.MeterScale.MaxRadius)
	})

	t.Run("geojson", func(t *testing.T) {
		rec := f.get(t, "/api/v1/overlay?format=geojson&state=All")
		require.Equal(t, http.StatusOK, rec.Code)
		var fc struct {
			Type     string `json:"type"`
			Features []struct {
				ID       string         `json:"id"`
				Geometry map[string]any `json:"geometry"`
			} `json:"features"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
		assert.Equal(t, "FeatureCollection", fc.Type)
		require.Len(t, fc.Features, 2)
		assert.Equal(t, "Texas", fc.Features[0].ID)
		assert.Equal(t, "Point", fc.Features[0].Geometry["type"])
	})

	t.Run("bad parameters", func(t *testing.T) {
		assertError(t, f.get(t, "/api/v1/overlay?year=abc"), http.StatusBadRequest)
		assertError(t, f.get(t, "/api/v1/overlay?scale=miles"), http.StatusBadRequest)
		assertError(t, f.get(t, "/api/v1/overlay?format=kml"), http.StatusBadRequest)
		assertError(t, f.get(t, "/api/v1/overlay?state=Atlantis"), http.StatusNotFound)
	})
}

func TestReload(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/reload", nil)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.EqualValues(t, 1, f.reloader.calls.Load())
	assert.Equal(t, http.StatusMethodNotAllowed, f.get(t, "/api/v1/reload").Code)
}

// --- providers ---

func TestProviders_ListEncodesMissingCoordinatesAsNull(t *testing.T) {
	rec := newFixture(t).get(t, "/api/v1/providers")
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode[[]map[string]any](t, rec)
	require.Len(t, list, 3)
	assert.Equal(t, "des-moines", list[0]["id"])
	assert.Nil(t, list[2]["lat"])
	assert.InDelta(t, -80.0, list[2]["lng"], 0)
}

func TestProviders_ByState(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/v1/providers?state=Iowa")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		State     string  `json:"state"`
		RadiusKm  float64 `json:"radius_km"`
		Providers []struct {
			ID         string   `json:"id"`
			DistanceKm *float64 `json:"distance_km"`
		} `json:"providers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Iowa", body.State)
	assert.InDelta(t, domain.StateProviderRadiusKm, body.RadiusKm, 0)
	require.Len(t, body.Providers, 1)
	assert.Equal(t, "des-moines", body.Providers[0].ID)
	require.NotNil(t, body.Providers[0].DistanceKm)
	assert.Less(t, *body.Providers[0].DistanceKm, float64(domain.StateProviderRadiusKm))

	// States outside the dataset still resolve through the centroid table
	// and are reported by their full name.
	for _, query := range []string{"CA", "california"} {
		rec = f.get(t, "/api/v1/providers?state="+query)
		require.Equal(t, http.StatusOK, rec.Code, query)
		body.State = ""
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "California", body.State, query)
	}

	assertError(t, f.get(t, "/api/v1/providers?state=Atlantis"), http.StatusNotFound)
}

type nearestBody struct {
	Origin    domain.LatLng `json:"origin"`
	Address   string        `json:"address"`
	Providers []struct {
		ID         string   `json:"id"`
		Lat        *float64 `json:"lat"`
		DistanceKm *float64 `json:"distance_km"`
	} `json:"providers"`
	Viewport struct {
		Min [2]float64 `json:"min"`
		Max [2]float64 `json:"max"`
	} `json:"viewport"`
}

func TestNearest_ByCoordinates(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/v1/providers/nearest?lat=30.3&lng=-97.7")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[nearestBody](t, rec)
	require.Len(t, body.Providers, 3)
	assert.Equal(t, "austin", body.Providers[0].ID)
	assert.Equal(t, "des-moines", body.Providers[1].ID)
	assert.Equal(t, "broken", body.Providers[2].ID)
	assert.Nil(t, body.Providers[2].DistanceKm)
	assert.Nil(t, body.Providers[2].Lat)
	assert.InDelta(t, -97.74, body.Viewport.Min[0], 1e-9)
	assert.InDelta(t, 41.59, body.Viewport.Max[1], 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(f.metrics.NearestQueries), 0)

	body = decode[nearestBody](t, f.get(t, "/api/v1/providers/nearest?lat=30.3&lng=-97.7&count=1"))
	assert.Len(t, body.Providers, 1)
}

func TestNearest_ByAddress(t *testing.T) {
	f := newFixture(t, func(d *httpadapter.Deps) {
		d.Geocoder = stubGeocoder{result: domain.GeocodingResult{
			Lat: 41.6, Lon: -93.6, FormattedAddress: "Des Moines, Iowa, United States",
		}}
	})

	body := decode[nearestBody](t, f.get(t, "/api/v1/providers/nearest?address=Des+Moines&count=1"))

	assert.Equal(t, "Des Moines, Iowa, United States", body.Address)
	assert.Equal(t, domain.LatLng{Lat: 41.6, Lng: -93.6}, body.Origin)
	require.Len(t, body.Providers, 1)
	assert.Equal(t, "des-moines", body.Providers[0].ID)
}

func TestNearest_Errors(t *testing.T) {
	f := newFixture(t)
	assertError(t, f.get(t, "/api/v1/providers/nearest"), http.StatusBadRequest)
	assertError(t, f.get(t, "/api/v1/providers/nearest?lat=abc&lng=1"), http.StatusBadRequest)
	assertError(t, f.get(t, "/api/v1/providers/nearest?lat=91&lng=1"), http.StatusBadRequest)
	assertError(t, f.get(t, "/api/v1/providers/nearest?lat=1&lng=1&count=-1"), http.StatusBadRequest)
	assertError(t, f.get(t, "/api/v1/providers/nearest?address=Ames"), http.StatusServiceUnavailable)

	notFound := newFixture(t, func(d *httpadapter.Deps) { d.Geocoder = stubGeocoder{} })
	assertError(t, notFound.get(t, "/api/v1/providers/nearest?address=Nowhere"), http.StatusNotFound)

	failing := newFixture(t, func(d *httpadapter.Deps) { d.Geocoder = stubGeocoder{err: errors.New("timeout")} })
	assertError(t, failing.get(t, "/api/v1/providers/nearest?address=Ames"), http.StatusBadGateway)
}

// --- impact ---

func TestSustainability(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/impact/sustainability",
		strings.NewReader(`{"pesticide": 1000, "reduction": 50}`))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.InDelta(t, 500, body["pesticide_reduced_lbs"], 0.01)
	assert.Nil(t, body["loss_tonnes_avoided"])

	assertError(t, f.do(t, http.MethodPost, "/api/v1/impact/sustainability", strings.NewReader(`{`)), http.StatusBadRequest)
	assertError(t, f.do(t, http.MethodPost, "/api/v1/impact/sustainability",
		strings.NewReader(`{"pesticide": -1}`)), http.StatusBadRequest)
}

const esgInput = `{"farms": 10, "acres": 1000, "pesticide_per_acre": 2,
	"sit_reduction_pct": 50, "irradiation_shelf_pct": 30, "production_tons": 500}`

func TestESG(t *testing.T) {
	f := newFixture(t)

	t.Run("json", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/impact/esg", strings.NewReader(esgInput))
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Report     impact.ESGReport  `json:"report"`
			HubScaling []impact.HubPoint `json:"hub_scaling"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.InDelta(t, 1000, body.Report.PesticideAvoidedLbs, 0)
		assert.NotEmpty(t, body.Report.ID)
		assert.NotEmpty(t, body.HubScaling)
	})

	t.Run("csv", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/impact/esg?format=csv", strings.NewReader(esgInput))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "esg_report.csv")
		assert.True(t, strings.HasPrefix(rec.Body.String(), `"metric","value","units"`))
		assert.Contains(t, rec.Body.String(), `"pesticide_avoided_lbs","1000","lbs/year"`)
	})

	t.Run("pdf", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/impact/esg?format=pdf", strings.NewReader(esgInput))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
	})

	assert.InDelta(t, 2.0, testutil.ToFloat64(f.metrics.ExportsRendered.WithLabelValues("csv"))+
		testutil.ToFloat64(f.metrics.ExportsRendered.WithLabelValues("pdf")), 0)

	assertError(t, f.do(t, http.MethodPost, "/api/v1/impact/esg?format=docx", strings.NewReader(esgInput)), http.StatusBadRequest)
	assertError(t, f.do(t, http.MethodPost, "/api/v1/impact/esg", strings.NewReader(`{"acres": -5}`)), http.StatusBadRequest)
}

func TestScenario(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/v1/impact/scenario?years=3&scenario=25")
	require.Equal(t, http.StatusOK, rec.Code)
	series := decode[[]impact.ScenarioPoint](t, rec)
	require.Len(t, series, 3)
	assert.Equal(t, 2023, series[0].Year)
	assert.Equal(t, 2025, series[2].Year)

	assertError(t, f.get(t, "/api/v1/impact/scenario?region=Atlantis"), http.StatusBadRequest)
	assertError(t, f.get(t, "/api/v1/impact/scenario?years=500"), http.StatusBadRequest)
	assertError(t, f.get(t, "/api/v1/impact/scenario?years=abc"), http.StatusBadRequest)
}

// --- emissions ---

func TestEmissions_NotLoaded(t *testing.T) {
	assertError(t, newFixture(t).get(t, "/api/v1/emissions/summary"), http.StatusServiceUnavailable)
}

func TestEmissions(t *testing.T) {
	f := newFixture(t, withEmissions(t))

	summary := decode[emissions.Summary](t, f.get(t, "/api/v1/emissions/summary"))
	assert.Equal(t, 2022, summary.Year)
	assert.Equal(t, "China", summary.TopEmitter)

	var trend struct {
		Metric string            `json:"metric"`
		Label  string            `json:"label"`
		Points []emissions.Point `json:"points"`
	}
	require.NoError(t, json.Unmarshal(f.get(t, "/api/v1/emissions/trend?country=China").Body.Bytes(), &trend))
	assert.Equal(t, "co2", trend.Metric)
	assert.Len(t, trend.Points, 2)

	top := decode[[]emissions.CountryValue](t, f.get(t, "/api/v1/emissions/top?metric=co2_per_capita&n=2"))
	assert.Equal(t, []emissions.CountryValue{{Country: "United States", Value: 14.95}, {Country: "China", Value: 7.99}}, top)

	sources := decode[[]emissions.SourceShare](t, f.get(t, "/api/v1/emissions/sources"))
	require.NotEmpty(t, sources)
	assert.Equal(t, "Coal", sources[0].Source)

	major := decode[[]emissions.CountryValue](t, f.get(t, "/api/v1/emissions/major"))
	require.NotEmpty(t, major)
	assert.Equal(t, "China", major[0].Country)

	rows := decode[[]emissions.Row](t, f.get(t, "/api/v1/emissions/table?n=2"))
	require.Len(t, rows, 2)
	assert.Equal(t, "CHN", rows[0].ISOCode)

	rec := f.get(t, "/api/v1/emissions/export.csv?country=India")
	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Equal(t, strings.Join(emissions.ExportColumns, ","), lines[0])
	assert.Len(t, lines, 2)

	assertError(t, f.get(t, "/api/v1/emissions/trend?from=x"), http.StatusBadRequest)
}

// --- exports ---

func TestExportWorkbook(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/v1/export/overlay.xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sterileloop_overlay.xlsx")

	wb, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{"State Totals", "By Year", "Overlay"}, wb.GetSheetList())
	assert.InDelta(t, 1.0, testutil.ToFloat64(f.metrics.ExportsRendered.WithLabelValues("xlsx")), 0)
}

func TestExportShapefile(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/v1/export/overlay.zip?state=Texas")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	assertError(t, f.get(t, "/api/v1/export/overlay.zip?state=Atlantis"), http.StatusNotFound)
}

func TestExportYearChart(t *testing.T) {
	rec := newFixture(t).get(t, "/api/v1/export/charts/year.png?year=2015")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}
