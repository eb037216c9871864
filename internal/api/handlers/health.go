package handlers

import (
	"net/http"

	"github.com/jakechorley/camp-scheduler/pkg/core/gateway"
)

// HealthCheck reports process liveness and the gateway phase
func HealthCheck(gw *gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"phase":  string(gw.Phase()),
		})
	}
}
