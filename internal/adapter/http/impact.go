package http

import (
	"bytes"
	"net/http"

	"github.com/couchcryptid/sterileloop/internal/impact"
	"github.com/couchcryptid/sterileloop/internal/report"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

type esgResponse struct {
	Report     impact.ESGReport  `json:"report"`
	HubScaling []impact.HubPoint `json:"hub_scaling"`
}

func (a *API) handleSustainability(w http.ResponseWriter, r *http.Request) {
	var in impact.SustainabilityInputs
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "%s", err)
		return
	}
	if in.PesticideLbs < 0 || in.ReductionPct < 0 || in.ReductionPct > 100 || in.LossPct < 0 || in.LossPct > 100 {
		writeError(w, http.StatusBadRequest, "pesticide must be non-negative and percentages within 0..100")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, impact.Sustainability(in, a.assumptions))
}

func (a *API) handleESG(w http.ResponseWriter, r *http.Request) {
	var in impact.ESGInputs
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "%s", err)
		return
	}
	if in.Farms < 0 || in.Acres < 0 || in.PesticidePerAcre < 0 || in.ProductionTons < 0 ||
		in.SITReductionPct < 0 || in.SITReductionPct > 100 ||
		in.IrradiationShelfPct < 0 || in.IrradiationShelfPct > 100 {
		writeError(w, http.StatusBadRequest, "inputs must be non-negative and percentages within 0..100")
		return
	}
	rep := impact.ESG(in, a.assumptions)

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		sharedobs.WriteJSON(w, http.StatusOK, esgResponse{
			Report:     rep,
			HubScaling: rep.HubScaling(report.DefaultHubCount),
		})
	case "csv":
		body, err := render(func(buf *bytes.Buffer) error { return report.WriteESGCSV(buf, in, rep) })
		if err != nil {
			a.renderFailed(w, format, err, nil)
			return
		}
		a.metrics.ExportsRendered.WithLabelValues("csv").Inc()
		writeFile(w, "text/csv", "esg_report.csv", body)
	case "pdf":
		body, err := render(func(buf *bytes.Buffer) error { return report.WriteESGPDF(buf, in, rep) })
		if err != nil {
			a.renderFailed(w, format, err, nil)
			return
		}
		a.metrics.ExportsRendered.WithLabelValues("pdf").Inc()
		writeFile(w, "application/pdf", "sterileloop_esg_report.pdf", body)
	default:
		writeError(w, http.StatusBadRequest, "format must be json, csv or pdf")
	}
}

func (a *API) handleScenario(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	years, err := queryInt(q, "years", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%s", err)
		return
	}
	pct, _, err := queryFloat(q, "scenario")
	if err != nil {
		writeError(w, http.StatusBadRequest, "%s", err)
		return
	}
	f := impact.ScenarioFilters{Region: q.Get("region"), Years: years, ScenarioPct: pct}
	series, err := impact.ScenarioSeries(f, a.clock.Now(), a.assumptions)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%s", err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, series)
}
