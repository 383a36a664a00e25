package controller

import (
	"net/http"
)

// HandleHealth reports service liveness plus the currently served
// fingerprint.
// Endpoint: GET /health
func (c *Controller) HandleHealth(w http.ResponseWriter, r *http.Request) {
	res := c.App.Current()
	if res == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status": "errored", "error": "no snapshot loaded",
		})
		return
	}

	if c.App.RedisClient != nil {
		if err := c.App.RedisClient.Health(r.Context()); err != nil {
			writeJSON(w, http.StatusOK, map[string]string{
				"status":      "degraded",
				"error":       "redis unreachable",
				"fingerprint": res.Fingerprint,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"source":      c.App.Source.Name(),
		"fingerprint": res.Fingerprint,
	})
}
