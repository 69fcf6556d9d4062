package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the gateway-level prometheus collectors.
type Metrics struct {
	RequestsTotal *prometheus.CounterVec
	DecodeErrors  prometheus.Counter
	DroppedTotal  prometheus.Counter
	BackendErrors prometheus.Counter
	BackendUp     prometheus.Gauge
}

func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "snmp_gate",
				Subsystem: "requests",
				Name:      "total",
				Help:      "Total number of handled requests",
			},
			[]string{"type"},
		),
		DecodeErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "snmp_gate",
				Subsystem: "requests",
				Name:      "decode_errors_total",
				Help:      "Total number of dropped undecodable datagrams",
			},
		),
		DroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "snmp_gate",
				Subsystem: "requests",
				Name:      "dropped_total",
				Help:      "Total number of datagrams dropped for a bad community",
			},
		),
		BackendErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "snmp_gate",
				Subsystem: "backend",
				Name:      "read_errors_total",
				Help:      "Total number of failed backend reads",
			},
		),
		BackendUp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "snmp_gate",
				Subsystem: "backend",
				Name:      "up",
				Help:      "Whether the backend connection is established",
			},
		),
	}
}

// MustRegister registers all collectors with the given registerer.
func (m *Metrics) MustRegister(r prometheus.Registerer) {
	r.MustRegister(m.RequestsTotal, m.DecodeErrors, m.DroppedTotal, m.BackendErrors, m.BackendUp)
}
