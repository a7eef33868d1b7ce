package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/sterileloop/internal/domain"
	"github.com/couchcryptid/sterileloop/internal/emissions"
	"github.com/couchcryptid/sterileloop/internal/impact"
	"github.com/couchcryptid/sterileloop/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// SnapshotReader returns the latest published snapshot.
type SnapshotReader interface {
	Current() (domain.Snapshot, bool)
}

// Reloader requests a fresh dataset load without waiting for it.
type Reloader interface {
	Reload()
}

// Deps are the collaborators behind the /api/v1 routes. Geocoder, Emissions
// and Reloader are optional; routes that need a missing one answer 503.
type Deps struct {
	Snapshots   SnapshotReader
	Reloader    Reloader
	Providers   []domain.GeoProvider
	Geocoder    domain.Geocoder
	Emissions   *emissions.Dataset
	Assumptions impact.Assumptions
	Metrics     *observability.Metrics
	Logger      *slog.Logger
	Clock       clockwork.Clock
}

// API serves the overlay, provider, impact, emissions and export routes.
type API struct {
	snapshots   SnapshotReader
	reloader    Reloader
	providers   []domain.GeoProvider
	geocoder    domain.Geocoder
	emissions   *emissions.Dataset
	assumptions impact.Assumptions
	metrics     *observability.Metrics
	logger      *slog.Logger
	clock       clockwork.Clock
}

// NewAPI creates the API handlers. A nil clock uses the real clock.
func NewAPI(d Deps) *API {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	return &API{
		snapshots:   d.Snapshots,
		reloader:    d.Reloader,
		providers:   d.Providers,
		geocoder:    d.Geocoder,
		emissions:   d.Emissions,
		assumptions: d.Assumptions,
		metrics:     d.Metrics,
		logger:      d.Logger,
		clock:       d.Clock,
	}
}

func (a *API) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/years", a.handleYears)
	mux.HandleFunc("GET /api/v1/states", a.handleStates)
	mux.HandleFunc("GET /api/v1/states/{state}", a.handleState)
	mux.HandleFunc("GET /api/v1/summary", a.handleSummary)
	mux.HandleFunc("GET /api/v1/overlay", a.handleOverlay)
	mux.HandleFunc("POST /api/v1/reload", a.handleReload)

	mux.HandleFunc("GET /api/v1/providers", a.handleProviders)
	mux.HandleFunc("GET /api/v1/providers/nearest", a.handleNearest)

	mux.HandleFunc("POST /api/v1/impact/sustainability", a.handleSustainability)
	mux.HandleFunc("POST /api/v1/impact/esg", a.handleESG)
	mux.HandleFunc("GET /api/v1/impact/scenario", a.handleScenario)

	mux.HandleFunc("GET /api/v1/emissions/summary", a.withEmissions(a.handleEmissionsSummary))
	mux.HandleFunc("GET /api/v1/emissions/trend", a.withEmissions(a.handleEmissionsTrend))
	mux.HandleFunc("GET /api/v1/emissions/top", a.withEmissions(a.handleEmissionsTop))
	mux.HandleFunc("GET /api/v1/emissions/sources", a.withEmissions(a.handleEmissionsSources))
	mux.HandleFunc("GET /api/v1/emissions/major", a.withEmissions(a.handleEmissionsMajor))
	mux.HandleFunc("GET /api/v1/emissions/table", a.withEmissions(a.handleEmissionsTable))
	mux.HandleFunc("GET /api/v1/emissions/export.csv", a.withEmissions(a.handleEmissionsExport))

	mux.HandleFunc("GET /api/v1/export/overlay.xlsx", a.handleExportWorkbook)
	mux.HandleFunc("GET /api/v1/export/overlay.zip", a.handleExportShapefile)
	mux.HandleFunc("GET /api/v1/export/charts/year.png", a.handleExportYearChart)
}

// snapshot returns the current snapshot or answers 503.
func (a *API) snapshot(w http.ResponseWriter) (domain.Snapshot, bool) {
	snap, ok := a.snapshots.Current()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no dataset has been loaded yet")
	}
	return snap, ok
}

// resolveState matches a state name exactly, then case-insensitively.
func resolveState(ds domain.Dataset, name string) (string, bool) {
	name = strings.TrimSpace(name)
	if _, ok := ds.States[name]; ok {
		return name, true
	}
	for _, s := range ds.StateNames() {
		if strings.EqualFold(s, name) {
			return s, true
		}
	}
	return "", false
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}

// writeFile sends a rendered export as an attachment.
func writeFile(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body) //nolint:errcheck // client disconnects are not actionable
}

// renderFailed logs a render error and answers 404 for an empty view or 500 otherwise.
func (a *API) renderFailed(w http.ResponseWriter, format string, err error, empty error) {
	if empty != nil && errors.Is(err, empty) {
		writeError(w, http.StatusNotFound, "nothing to render for this view")
		return
	}
	a.logger.Error("render failed", "format", format, "error", err)
	writeError(w, http.StatusInternalServerError, "render %s failed", format)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func queryInt(q url.Values, key string, def int) (int, error) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return v, nil
}

func queryFloat(q url.Values, key string) (float64, bool, error) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, true, fmt.Errorf("invalid %s %q", key, s)
	}
	return v, true, nil
}

// render buffers an export so a failure can still produce a JSON error.
func render(fn func(*bytes.Buffer) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
