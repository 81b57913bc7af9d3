// Package metrics exposes receive pipeline counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"datarecv/internal/dab"
)

const namespace = "dab_datarecv"

// Metrics counts reassembly outcomes per service. It satisfies
// reassembly.Observer.
type Metrics struct {
	registry *prometheus.Registry

	payloads      *prometheus.CounterVec
	packetStatus  *prometheus.CounterVec
	groupStatus   *prometheus.CounterVec
	stored        *prometheus.CounterVec
	storedBytes   *prometheus.CounterVec
	storeFailures *prometheus.CounterVec
}

// New creates the counters and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		payloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reassembly",
			Name:      "payloads_total",
			Help:      "Raw service payloads received from the ensemble decoder",
		}, []string{"service"}),
		packetStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reassembly",
			Name:      "packets_total",
			Help:      "Packet parser outcomes by status",
		}, []string{"service", "status"}),
		groupStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reassembly",
			Name:      "data_groups_total",
			Help:      "Data group parser outcomes by status",
		}, []string{"service", "status"}),
		stored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "records_total",
			Help:      "Message records written",
		}, []string{"service"}),
		storedBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "bytes_total",
			Help:      "Message bytes written",
		}, []string{"service"}),
		storeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "failures_total",
			Help:      "Message records that could not be written",
		}, []string{"service"}),
	}
	m.registry.MustRegister(m.payloads, m.packetStatus, m.groupStatus, m.stored, m.storedBytes, m.storeFailures)
	return m
}

// Registry returns the registry backing the counters.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// AddCounterFunc registers a counter read from fn at scrape time.
func (m *Metrics) AddCounterFunc(subsystem, name, help string, fn func() float64) error {
	return m.registry.Register(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, fn))
}

// AddGaugeFunc registers a gauge read from fn at scrape time.
func (m *Metrics) AddGaugeFunc(subsystem, name, help string, fn func() float64) error {
	return m.registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, fn))
}

func (m *Metrics) PayloadReceived(service dab.ServiceID) {
	m.payloads.WithLabelValues(service.String()).Inc()
}

func (m *Metrics) PacketStatus(service dab.ServiceID, status dab.ParseStatus) {
	m.packetStatus.WithLabelValues(service.String(), status.String()).Inc()
}

func (m *Metrics) GroupStatus(service dab.ServiceID, status dab.ParseStatus) {
	m.groupStatus.WithLabelValues(service.String(), status.String()).Inc()
}

func (m *Metrics) MessageStored(service dab.ServiceID, size int) {
	m.stored.WithLabelValues(service.String()).Inc()
	m.storedBytes.WithLabelValues(service.String()).Add(float64(size))
}

func (m *Metrics) StoreFailed(service dab.ServiceID) {
	m.storeFailures.WithLabelValues(service.String()).Inc()
}
