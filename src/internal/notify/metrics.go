package notify

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

const subsystem = "notify"

var (
	// notifications counts posted notifications.
	// Labels: reason (ack, timeout)
	notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: models.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "notifications_total",
		Help:      "Total number of posted network change notifications",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(notifications)
}
