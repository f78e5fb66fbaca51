package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "froeling"

// NewRegistry creates a Prometheus registry with the Go and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the HTTP handler serving reg
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Relay holds the relay's metrics. A nil *Relay is valid and records nothing,
// so the relay can run without a registry.
type Relay struct {
	Accepted      *prometheus.CounterVec   // labels: transport=tcp|websocket
	Connected     prometheus.Gauge         // clients currently attached
	Dropped       *prometheus.CounterVec   // labels: reason
	BytesReceived prometheus.Counter       // bytes read from clients
	Commands      *prometheus.CounterVec   // labels: command, result
	Duration      *prometheus.HistogramVec // labels: command
}

// NewRelay registers and returns the relay metrics
func NewRelay(reg prometheus.Registerer) *Relay {
	m := &Relay{
		Accepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_connections_accepted_total",
			Help:      "Client connections accepted by the relay.",
		}, []string{"transport"}),
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_connections",
			Help:      "Client connections currently open.",
		}),
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_connections_dropped_total",
			Help:      "Client connections closed by the relay, by reason.",
		}, []string{"reason"}),
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_bytes_received_total",
			Help:      "Bytes received from relay clients.",
		}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boiler_commands_total",
			Help:      "Commands sent to the boiler, by command byte and result.",
		}, []string{"command", "result"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "boiler_command_duration_seconds",
			Help:      "Time spent on one serial exchange.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2},
		}, []string{"command"}),
	}
	reg.MustRegister(m.Accepted, m.Connected, m.Dropped, m.BytesReceived, m.Commands, m.Duration)
	return m
}

// ClientAccepted records a new client
func (m *Relay) ClientAccepted(transport string) {
	if m == nil {
		return
	}
	m.Accepted.WithLabelValues(transport).Inc()
	m.Connected.Inc()
}

// ClientClosed records a closed client and why it was closed
func (m *Relay) ClientClosed(reason string) {
	if m == nil {
		return
	}
	m.Connected.Dec()
	m.Dropped.WithLabelValues(reason).Inc()
}

// Received records bytes read from a client
func (m *Relay) Received(n int) {
	if m == nil {
		return
	}
	m.BytesReceived.Add(float64(n))
}

// Command records one exchange with the boiler. result is "ok" or an error
// kind identifier.
func (m *Relay) Command(command byte, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	cmd := fmt.Sprintf("%02x", command)
	m.Commands.WithLabelValues(cmd, result).Inc()
	m.Duration.WithLabelValues(cmd).Observe(elapsed.Seconds())
}
