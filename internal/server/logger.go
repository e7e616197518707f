package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/foxfire/internal/metrics"
)

// RequestLogger is a middleware to log HTTP requests.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		route := routeLabel(r.URL.Path)
		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(ww.statusCode)).Inc()
		metrics.HTTPDurationMs.WithLabelValues(route).Observe(float64(elapsed.Microseconds()) / 1000)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.statusCode).
			Str("ip", r.RemoteAddr).
			Dur("duration", elapsed).
			Msg("Request processed")
	})
}

// routeLabel keeps metric cardinality bounded.
func routeLabel(path string) string {
	switch path {
	case "/api/formats", "/api/layers", "/api/convert", "/api/geohash", "/api/geocode",
		"/api/reverse", "/api/preview", "/metrics":
		return path
	}
	if strings.HasPrefix(path, "/tiles/") {
		return "/tiles"
	}
	return "/"
}

type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code before writing to the underlying response writer.
func (w *responseWriterWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
