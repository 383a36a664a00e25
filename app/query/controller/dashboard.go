package controller

import (
	"net/http"

	"github.com/rewardlytics/rewardsx/pkg/kpi"
	"github.com/rewardlytics/rewardsx/pkg/utils"
)

// HandleDashboard returns the KPI tile block, optionally scoped to one
// partner.
// Endpoint: GET /dashboard?partner=<name>
func (c *Controller) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	res := c.App.Current()
	if res == nil {
		writeError(w, http.StatusServiceUnavailable, "no snapshot loaded")
		return
	}

	partner := r.URL.Query().Get("partner")
	formula := kpi.ParseFormula(utils.Env("TOTAL_POINTS_FORMULA", ""))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":        kpi.BuildDashboard(res.Views, partner, formula),
		"fingerprint": res.Fingerprint,
	})
}

// HandleGrowth returns the growth-rate strings for each event stream.
// Endpoint: GET /dashboard/growth?partner=<name>
func (c *Controller) HandleGrowth(w http.ResponseWriter, r *http.Request) {
	res := c.App.Current()
	if res == nil {
		writeError(w, http.StatusServiceUnavailable, "no snapshot loaded")
		return
	}

	partner := r.URL.Query().Get("partner")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": kpi.BuildGrowth(res.Views, partner),
	})
}

// HandlePartners returns the distinct partner names for the dashboard
// filter.
// Endpoint: GET /partners
func (c *Controller) HandlePartners(w http.ResponseWriter, r *http.Request) {
	res := c.App.Current()
	if res == nil {
		writeError(w, http.StatusServiceUnavailable, "no snapshot loaded")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": kpi.PartnerNames(res.Views),
	})
}
