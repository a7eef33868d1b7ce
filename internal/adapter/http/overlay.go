package http

import (
	"bytes"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/sterileloop/internal/domain"
	"github.com/couchcryptid/sterileloop/internal/overlay"
	"github.com/couchcryptid/sterileloop/internal/report"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

type stateDTO struct {
	State        string         `json:"state"`
	Abbreviation string         `json:"abbreviation,omitempty"`
	Total        float64        `json:"total"`
	Center       *domain.LatLng `json:"center,omitempty"`
}

type yearValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

type stateDetailDTO struct {
	domain.StateDetail
	Center *domain.LatLng `json:"center,omitempty"`
	ByYear []yearValue    `json:"by_year"`
}

type overlayResponse struct {
	Source   string            `json:"source"`
	LoadedAt time.Time         `json:"loaded_at"`
	Year     int               `json:"year,omitempty"`
	State    string            `json:"state,omitempty"`
	Features []overlay.Feature `json:"features"`
}

func centerOf(snap domain.Snapshot, state string) *domain.LatLng {
	if c, ok := snap.Centroids[state]; ok {
		return &c
	}
	return nil
}

func (a *API) handleYears(w http.ResponseWriter, _ *http.Request) {
	snap, ok := a.snapshot(w)
	if !ok {
		return
	}
	years := snap.Dataset.Years.Sorted()
	if years == nil {
		years = []int{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string][]int{"years": years})
}

// handleStates lists every state, largest all-years total first.
func (a *API) handleStates(w http.ResponseWriter, _ *http.Request) {
	snap, ok := a.snapshot(w)
	if !ok {
		return
	}
	ranked := snap.Dataset.TopStates(0)
	out := make([]stateDTO, 0, len(ranked))
	for _, sv := range ranked {
		abbr, _ := domain.StateAbbreviation(sv.State)
		out = append(out, stateDTO{
			State:        sv.State,
			Abbreviation: abbr,
			Total:        sv.Value,
			Center:       centerOf(snap, sv.State),
		})
	}
	sharedobs.WriteJSON(w, http.StatusOK, out)
}

func (a *API) handleState(w http.ResponseWriter, r *http.Request) {
	snap, ok := a.snapshot(w)
	if !ok {
		return
	}
	ds := snap.Dataset
	name, ok := resolveState(ds, r.PathValue("state"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown state %q", r.PathValue("state"))
		return
	}
	detail, _ := ds.Detail(name)
	out := stateDetailDTO{
		StateDetail: detail,
		Center:      centerOf(snap, name),
		ByYear:      []yearValue{},
	}
	for _, y := range ds.Years.Sorted() {
		if v, ok := ds.YearTotals(y)[name]; ok {
			out.ByYear = append(out.ByYear, yearValue{Year: y, Value: v})
		}
	}
	sharedobs.WriteJSON(w, http.StatusOK, out)
}

func (a *API) handleSummary(w http.ResponseWriter, _ *http.Request) {
	snap, ok := a.snapshot(w)
	if !ok {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, snap.Dataset.Summary())
}

// parseView reads year and state. An unknown state is reported as found=false
// so callers can answer 404 rather than 400.
func parseView(q url.Values, ds domain.Dataset) (view overlay.View, found bool, err error) {
	year, err := queryInt(q, "year", 0)
	if err != nil {
		return overlay.View{}, false, err
	}
	if !ds.Years.Has(year) {
		year = 0
	}
	view.Year = year

	state := q.Get("state")
	if state == "" || state == overlay.AllStates {
		return view, true, nil
	}
	name, ok := resolveState(ds, state)
	if !ok {
		return view, false, nil
	}
	view.State = name
	return view, true, nil
}

func (a *API) handleOverlay(w http.ResponseWriter, r *http.Request) {
	snap, ok := a.snapshot(w)
	if !ok {
		return
	}
	q := r.URL.Query()
	view, found, err := parseView(q, snap.Dataset)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%s", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "unknown state %q", q.Get("state"))
		return
	}

	var scale domain.Scale
	switch q.Get("scale") {
	case "", "meters":
		scale = domain.MeterScale
	case "pixels":
		scale = domain.PixelScale
	default:
		writeError(w, http.StatusBadRequest, "scale must be meters or pixels")
		return
	}

	features := overlay.Build(snap, view, scale)
	switch q.Get("format") {
	case "", "json":
		if features == nil {
			features = []overlay.Feature{}
		}
		sharedobs.WriteJSON(w, http.StatusOK, overlayResponse{
			Source:   snap.Source,
			LoadedAt: snap.LoadedAt,
			Year:     view.Year,
			State:    view.State,
			Features: features,
		})
	case "geojson":
		sharedobs.WriteJSON(w, http.StatusOK, overlay.FeatureCollection(features))
	default:
		writeError(w, http.StatusBadRequest, "format must be json or geojson")
	}
}

func (a *API) handleReload(w http.ResponseWriter, _ *http.Request) {
	if a.reloader == nil {
		writeError(w, http.StatusServiceUnavailable, "reload is not available")
		return
	}
	a.reloader.Reload()
	a.logger.Info("dataset reload requested")
	sharedobs.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "reload requested"})
}

func (a *API) handleExportWorkbook(w http.ResponseWriter, r *http.Request) {
	snap, view, ok := a.exportView(w, r)
	if !ok {
		return
	}
	body, err := render(func(buf *bytes.Buffer) error {
		return report.WriteWorkbook(buf, snap, overlay.Build(snap, view, domain.MeterScale))
	})
	if err != nil {
		a.renderFailed(w, "xlsx", err, report.ErrNothingToRender)
		return
	}
	a.metrics.ExportsRendered.WithLabelValues("xlsx").Inc()
	writeFile(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "sterileloop_overlay.xlsx", body)
}

func (a *API) handleExportShapefile(w http.ResponseWriter, r *http.Request) {
	snap, view, ok := a.exportView(w, r)
	if !ok {
		return
	}
	body, err := render(func(buf *bytes.Buffer) error {
		return report.WriteShapefileZip(buf, overlay.Build(snap, view, domain.MeterScale), "sterileloop_overlay")
	})
	if err != nil {
		a.renderFailed(w, "shp", err, report.ErrNothingToRender)
		return
	}
	a.metrics.ExportsRendered.WithLabelValues("shp").Inc()
	writeFile(w, "application/zip", "sterileloop_overlay.zip", body)
}

func (a *API) handleExportYearChart(w http.ResponseWriter, r *http.Request) {
	snap, view, ok := a.exportView(w, r)
	if !ok {
		return
	}
	body, err := render(func(buf *bytes.Buffer) error {
		return report.RenderYearChart(buf, snap, view.Year)
	})
	if err != nil {
		a.renderFailed(w, "png", err, report.ErrNothingToRender)
		return
	}
	a.metrics.ExportsRendered.WithLabelValues("png").Inc()
	writeFile(w, "image/png", "sterileloop_year.png", body)
}

// exportView resolves the snapshot and view shared by the export routes.
func (a *API) exportView(w http.ResponseWriter, r *http.Request) (domain.Snapshot, overlay.View, bool) {
	snap, ok := a.snapshot(w)
	if !ok {
		return snap, overlay.View{}, false
	}
	q := r.URL.Query()
	view, found, err := parseView(q, snap.Dataset)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%s", err)
		return snap, view, false
	}
	if !found {
		writeError(w, http.StatusNotFound, "unknown state %q", q.Get("state"))
		return snap, view, false
	}
	return snap, view, true
}
