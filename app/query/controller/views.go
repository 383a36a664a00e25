package controller

import (
	"net/http"

	"github.com/rewardlytics/rewardsx/pkg/snapshot"
	"github.com/rewardlytics/rewardsx/pkg/table"
)

// ViewSummary reports one joined view's shape. An empty view is a
// legitimate "no data" state the frontend renders as such, but it is
// worth surfacing here since it usually points at an upstream data
// problem.
type ViewSummary struct {
	Rows        int `json:"rows"`
	Columns     int `json:"columns"`
	UniqueUsers int `json:"unique_users"`
}

// HandleViewsSummary returns row/user counts per joined view.
// Endpoint: GET /views/summary
func (c *Controller) HandleViewsSummary(w http.ResponseWriter, r *http.Request) {
	res := c.App.Current()
	if res == nil {
		writeError(w, http.StatusServiceUnavailable, "no snapshot loaded")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]ViewSummary{
			"campaigns": summarize(res.Views.Campaigns),
			"rewards":   summarize(res.Views.Rewards),
			"boosts":    summarize(res.Views.Boosts),
		},
		"fingerprint": res.Fingerprint,
		"built_at":    res.BuiltAt,
	})
}

func summarize(t *table.Table) ViewSummary {
	s := ViewSummary{Rows: t.NumRows(), Columns: len(t.Columns())}
	if t.HasColumn(snapshot.ColUserID) {
		seen := map[string]bool{}
		for i := 0; i < t.NumRows(); i++ {
			if uid, ok := t.Row(i).String(snapshot.ColUserID); ok {
				seen[uid] = true
			}
		}
		s.UniqueUsers = len(seen)
	}
	return s
}
