package election

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

const subsystem = "election"

var (
	// primaryChanges counts primary service changes.
	// Labels: family (IPv4, IPv6)
	primaryChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: models.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "primary_changes_total",
		Help:      "Total number of primary service changes per protocol family",
	}, []string{"family"})

	// candidateCount tracks the number of candidates of the last election.
	candidateCount = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: models.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "candidates",
		Help:      "Number of eligible candidates in the last election",
	}, []string{"family"})

	// demotions counts coupled candidates forced to Never.
	demotions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: models.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "coupled_demotions_total",
		Help:      "Total number of coupled candidates demoted because of the other family",
	}, []string{"family"})
)

func init() {
	prometheus.MustRegister(primaryChanges)
	prometheus.MustRegister(candidateCount)
	prometheus.MustRegister(demotions)
}

// RecordPrimaryChange increments the primary change counter for a family.
func RecordPrimaryChange(family models.Family) {
	primaryChanges.WithLabelValues(family.String()).Inc()
}

func recordCandidateCount(family models.Family, count int) {
	candidateCount.WithLabelValues(family.String()).Set(float64(count))
}

func recordDemotion(family models.Family) {
	demotions.WithLabelValues(family.String()).Inc()
}
