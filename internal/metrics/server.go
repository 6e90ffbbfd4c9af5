package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ihuguet/picofst/internal/config"
)

const readTimeout = 3 * time.Second

// CreateMetricsServer serves gatherer's metrics at cfg.Metrics's bind
// address under /metrics, blocking until the listener fails. It's a
// no-op if metrics are disabled, grounded on DMRHub's
// internal/metrics/server.go CreateMetricsServer, adapted to serve a
// caller-supplied Gatherer instead of the global default registry (see
// NewMetrics's own doc comment for why).
func CreateMetricsServer(cfg config.Metrics, gatherer prometheus.Gatherer) error {
	if !cfg.Enabled {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: readTimeout,
	}
	return server.ListenAndServe()
}
