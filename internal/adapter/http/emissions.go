package http

import (
	"bytes"
	"net/http"
	"net/url"

	"github.com/couchcryptid/sterileloop/internal/emissions"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const (
	defaultTopCount   = 10
	defaultTableCount = 50
)

func (a *API) withEmissions(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.emissions == nil {
			writeError(w, http.StatusServiceUnavailable, "emissions data is not loaded")
			return
		}
		next(w, r)
	}
}

func metricParam(q url.Values) emissions.Metric {
	if m := q.Get("metric"); m != "" {
		return emissions.Metric(m)
	}
	return emissions.MetricCO2
}

// yearRange reads from and to, defaulting to the standard trend window.
func yearRange(q url.Values) (from, to int, err error) {
	if from, err = queryInt(q, "from", emissions.DefaultFromYear); err != nil {
		return 0, 0, err
	}
	if to, err = queryInt(q, "to", emissions.DefaultToYear); err != nil {
		return 0, 0, err
	}
	return from, to, nil
}

func (a *API) handleEmissionsSummary(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, a.emissions.Summary())
}

func (a *API) handleEmissionsTrend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := yearRange(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%s", err)
		return
	}
	metric := metricParam(q)
	points := a.emissions.Trend(metric, q.Get("country"), from, to)
	if points == nil {
		points = []emissions.Point{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{
		"metric": metric,
		"label":  metric.Label(),
		"points": points,
	})
}

func (a *API) handleEmissionsTop(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	n, err := queryInt(q, "n", defaultTopCount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%s", err)
		return
	}
	top := a.emissions.TopEmitters(metricParam(q), n)
	if top == nil {
		top = []emissions.CountryValue{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, top)
}

func (a *API) handleEmissionsSources(w http.ResponseWriter, _ *http.Request) {
	sources := a.emissions.SourceBreakdown()
	if sources == nil {
		sources = []emissions.SourceShare{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, sources)
}

func (a *API) handleEmissionsMajor(w http.ResponseWriter, r *http.Request) {
	major := a.emissions.Major(metricParam(r.URL.Query()))
	if major == nil {
		major = []emissions.CountryValue{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, major)
}

func (a *API) handleEmissionsTable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := yearRange(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%s", err)
		return
	}
	n, err := queryInt(q, "n", defaultTableCount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%s", err)
		return
	}
	rows := a.emissions.Filter(q.Get("country"), from, to).Table(n)
	if rows == nil {
		rows = []emissions.Row{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, rows)
}

func (a *API) handleEmissionsExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := yearRange(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%s", err)
		return
	}
	rows := a.emissions.Filter(q.Get("country"), from, to).Rows
	body, err := render(func(buf *bytes.Buffer) error { return emissions.WriteCSV(buf, rows) })
	if err != nil {
		a.renderFailed(w, "csv", err, nil)
		return
	}
	a.metrics.ExportsRendered.WithLabelValues("csv").Inc()
	writeFile(w, "text/csv", "emissions_export.csv", body)
}
