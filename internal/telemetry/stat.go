// Package telemetry holds the process-wide Prometheus metrics this module
// exposes, grounded on the teacher's stat.go (a Stat struct of
// prometheus.Counter/Gauge fields, registered once, with a background
// uptime-refresh goroutine). Re-themed around OTA/MQTT/HTTP counters.
package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stat holds every metric this module emits.
type Stat struct {
	Uptime prometheus.Counter

	MQTTPacketsSent     prometheus.Counter
	MQTTPacketsReceived prometheus.Counter

	HTTPRequestsTotal prometheus.Counter

	OTABytesDownloaded prometheus.Counter
	OTAActiveRuns      prometheus.Gauge
	OTARetries         prometheus.Counter
}

var (
	instance = Stat{
		Uptime: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iotcore_uptime_seconds", Help: "Process uptime in seconds.",
		}),
		MQTTPacketsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iotcore_mqtt_packets_sent_total", Help: "MQTT packets sent by this client.",
		}),
		MQTTPacketsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iotcore_mqtt_packets_received_total", Help: "MQTT packets received (PUBLISH only) by this client.",
		}),
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iotcore_http_requests_total", Help: "HTTP requests issued by the OTA HTTP client.",
		}),
		OTABytesDownloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iotcore_ota_bytes_downloaded_total", Help: "Firmware bytes downloaded across all OTA runs.",
		}),
		OTAActiveRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "iotcore_ota_active_runs", Help: "Number of OTA engine runs currently in progress.",
		}),
		OTARetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iotcore_ota_chunk_retries_total", Help: "Transient HTTP chunk-download retries.",
		}),
	}
	registerOnce sync.Once
)

// Stats returns the process-wide Stat instance.
func Stats() *Stat { return &instance }

// Register registers every metric with the default Prometheus registry.
// Safe to call more than once; only the first call registers.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			instance.Uptime,
			instance.MQTTPacketsSent,
			instance.MQTTPacketsReceived,
			instance.HTTPRequestsTotal,
			instance.OTABytesDownloaded,
			instance.OTAActiveRuns,
			instance.OTARetries,
		)
		go instance.refreshUptime()
	})
}

func (s *Stat) refreshUptime() {
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for range tick.C {
		s.Uptime.Inc()
	}
}
