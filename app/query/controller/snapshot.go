package controller

import (
	"net/http"
)

// HandleSnapshotReload forces a fresh snapshot load, the explicit
// cache-busting entry point. An unchanged snapshot is cheap: the
// pipeline memo cache absorbs it.
// Endpoint: POST /snapshot/reload
func (c *Controller) HandleSnapshotReload(w http.ResponseWriter, r *http.Request) {
	res, err := c.App.Reload(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"fingerprint": res.Fingerprint,
		"built_at":    res.BuiltAt,
	})
}
