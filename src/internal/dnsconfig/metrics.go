package dnsconfig

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

const subsystem = "dns"

var (
	builds = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: models.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "builds_total",
		Help:      "Total number of resolver configuration builds",
	})

	changes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: models.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "changes_total",
		Help:      "Total number of builds that changed the resolver configuration",
	})

	resolverCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: models.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "resolvers",
		Help:      "Number of resolvers in the last built configuration",
	})

	// publishFailures counts resolv.conf writes that failed.
	publishFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: models.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "publish_failures_total",
		Help:      "Total number of failed resolv.conf publications",
	})
)

func init() {
	prometheus.MustRegister(builds)
	prometheus.MustRegister(changes)
	prometheus.MustRegister(resolverCount)
	prometheus.MustRegister(publishFailures)
}
