package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the ops surface: liveness plus prometheus metrics.
// mqttConnected reports the current transport state.
func NewRouter(mqttConnected func() bool) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		connected := mqttConnected()
		status := "ok"
		code := http.StatusOK
		if !connected {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":         status,
			"mqtt_connected": connected,
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
