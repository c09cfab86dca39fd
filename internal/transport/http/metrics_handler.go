package http

import (
	"net/http"

	"github.com/go-chi/render"

	apierrors "bizinsights/internal/errors"
)

// MetricsHandler serves the Prometheus scrape endpoint
type MetricsHandler struct {
	prometheus http.Handler
}

// NewMetricsHandler creates a metrics handler. A nil handler means metrics
// export is disabled and the endpoint answers 404.
func NewMetricsHandler(prometheus http.Handler) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		render.Render(w, r, apierrors.NewProblemDetails(
			http.StatusNotFound,
			apierrors.TypeNotFound,
			"Metrics Disabled",
			"Metric export is not enabled on this server",
			r.URL.Path,
		))
		return
	}
	h.prometheus.ServeHTTP(w, r)
}
