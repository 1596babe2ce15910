package telemetry

import (
	"context"
	"log"
	"net/http"

	"github.com/golang-io/requests"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Serve runs the device's diagnostics HTTP server exposing /metrics, grounded
// on the teacher's stat.go Httpd(). This is deliberately a separate concern
// from the OTA httpclient.Client, which must stay a custom Transport-based
// implementation — golang-io/requests is only ever used for this ambient
// ops endpoint, never for firmware transfer.
func Serve(addr string) error {
	Register()
	mux := requests.NewServeMux(requests.URL(addr))
	mux.Route("/metrics", promhttp.Handler())
	s := requests.NewServer(context.Background(), mux, requests.OnStart(func(s *http.Server) {
		log.Printf("telemetry: serving metrics on %s", s.Addr)
	}))
	return s.ListenAndServe()
}
