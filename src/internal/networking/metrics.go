package networking

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

const subsystem = "routes"

var (
	// routeAdds counts routes installed in the kernel.
	routeAdds = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: models.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "added_total",
		Help:      "Total number of IPv4 routes added",
	})

	// routeRemoves counts routes removed from the kernel.
	routeRemoves = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: models.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "removed_total",
		Help:      "Total number of IPv4 routes removed",
	})

	// applyFailures counts kernel rejections other than exists/not-found.
	// Labels: op (add, remove)
	applyFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: models.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "apply_failures_total",
		Help:      "Total number of failed IPv4 route operations",
	}, []string{"op"})

	// committedRoutes tracks the size of the committed route list.
	committedRoutes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: models.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "committed",
		Help:      "Number of routes in the committed IPv4 route list",
	})
)

func init() {
	prometheus.MustRegister(routeAdds)
	prometheus.MustRegister(routeRemoves)
	prometheus.MustRegister(applyFailures)
	prometheus.MustRegister(committedRoutes)
}

func recordApplyFailure(op string) {
	applyFailures.WithLabelValues(op).Inc()
}
