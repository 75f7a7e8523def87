package web

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry *prometheus.Registry

	httpDuration *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
	renders      *prometheus.CounterVec
	sources      prometheus.Gauge
	viewers      prometheus.Gauge
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &metrics{
		registry: reg,
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name: "http_response_time_seconds",
			Help: "Duration of HTTP requests.",
		}, []string{"path"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Number of HTTP requests.",
		}, []string{"path"}),
		renders: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "starfinder_renders_total",
			Help: "Number of render requests by outcome.",
		}, []string{"outcome"}),
		sources: factory.NewGauge(prometheus.GaugeOpts{
			Name: "starfinder_sources",
			Help: "Number of sources in the latest frame.",
		}),
		viewers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "starfinder_viewers",
			Help: "Number of connected websocket viewers.",
		}),
	}
}

// middleware records request counts and durations labelled by route
// template, so query strings and ids do not create new series.
func (m *metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		duration := time.Since(start)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}
		m.httpDuration.WithLabelValues(path).Observe(duration.Seconds())
		m.httpRequests.WithLabelValues(path).Inc()
	})
}

func (m *metrics) observeRender(sources int, err error) {
	if err != nil {
		m.renders.WithLabelValues("error").Inc()
		return
	}
	m.renders.WithLabelValues("ok").Inc()
	m.sources.Set(float64(sources))
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
