package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

const subsystem = "engine"

var (
	passes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: models.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "passes_total",
		Help:      "Total number of reconciliation passes",
	})

	servicesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: models.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "services",
		Help:      "Number of known network services",
	})

	// malformedEntities counts entities dropped by validation.
	// Labels: entity (IPv4, IPv6, DNS, Proxies, Service, VPN)
	malformedEntities = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: models.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "malformed_entities_total",
		Help:      "Total number of malformed service entities dropped",
	}, []string{"entity"})
)

func init() {
	prometheus.MustRegister(passes, servicesGauge, malformedEntities)
}
