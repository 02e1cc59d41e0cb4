package server

import (
	"net/http"

	"github.com/woozymasta/lotinfo/internal/metrics"
)

// Routes registers the handlers and wraps them with the request logger.
func (s *ServerContext) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/parcel.geojson", s.HandleGeoJSON)
	mux.HandleFunc("/favicon.svg", s.HandleFavicon)
	mux.HandleFunc("/healthz", s.HandleHealth)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/", s.HandleIndex)

	return RequestLogger(mux)
}
