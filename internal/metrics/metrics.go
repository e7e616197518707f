// Package metrics holds the Prometheus collectors shared by the converters,
// the geocoder and the HTTP server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 2000}

var (
	ConvertTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foxfire_convert_total",
		Help: "Total geometry conversions by source and target format",
	}, []string{"from", "to"})
	ConvertFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foxfire_convert_fail_total",
		Help: "Total failed geometry conversions by source and target format",
	}, []string{"from", "to"})

	GeocodeRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "foxfire_geocode_requests_total",
		Help: "Total geocoding service requests",
	})
	GeocodeFailTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "foxfire_geocode_fail_total",
		Help: "Total failed geocoding service requests",
	})
	GeocodeDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "foxfire_geocode_duration_ms",
		Help:    "Geocoding service call duration in milliseconds",
		Buckets: durationBuckets,
	})
	GeocodeCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "foxfire_geocode_cache_hits_total",
		Help: "Total geocoding cache hits",
	})
	GeocodeCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "foxfire_geocode_cache_misses_total",
		Help: "Total geocoding cache misses",
	})

	BatchFilesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foxfire_batch_files_total",
		Help: "Files processed by batch conversion by result",
	}, []string{"result"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foxfire_http_requests_total",
		Help: "HTTP API requests by route and status code",
	}, []string{"route", "code"})
	HTTPDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "foxfire_http_request_duration_ms",
		Help:    "HTTP API request duration in milliseconds",
		Buckets: durationBuckets,
	}, []string{"route"})
)

func init() {
	prometheus.MustRegister(ConvertTotal)
	prometheus.MustRegister(ConvertFailTotal)
	prometheus.MustRegister(GeocodeRequestsTotal)
	prometheus.MustRegister(GeocodeFailTotal)
	prometheus.MustRegister(GeocodeDurationMs)
	prometheus.MustRegister(GeocodeCacheHitsTotal)
	prometheus.MustRegister(GeocodeCacheMissesTotal)
	prometheus.MustRegister(BatchFilesTotal)
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPDurationMs)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
