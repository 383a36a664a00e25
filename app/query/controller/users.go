package controller

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/rewardlytics/rewardsx/pkg/aggregate"
)

// HandleUserTotals returns every user's point breakdown.
// Endpoint: GET /users/totals
func (c *Controller) HandleUserTotals(w http.ResponseWriter, r *http.Request) {
	res := c.App.Current()
	if res == nil {
		writeError(w, http.StatusServiceUnavailable, "no snapshot loaded")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": res.Totals,
	})
}

// HandleTopUsers returns the highest-earning users by total points.
// Endpoint: GET /users/top?limit=<n>
func (c *Controller) HandleTopUsers(w http.ResponseWriter, r *http.Request) {
	res := c.App.Current()
	if res == nil {
		writeError(w, http.StatusServiceUnavailable, "no snapshot loaded")
		return
	}

	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit value")
			return
		}
		if parsed > 100 {
			parsed = 100
		}
		limit = parsed
	}

	top := make([]aggregate.UserTotal, len(res.Totals))
	copy(top, res.Totals)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Total > top[j].Total })
	if len(top) > limit {
		top = top[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": top,
	})
}
