package waitlist

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess          = "success"
	outcomeValidationError  = "validation_error"
	outcomeStorageError     = "storage_error"
	outcomePersistenceError = "persistence_error"
)

type joinMetrics struct {
	submissions     *prometheus.CounterVec
	attachmentBytes prometheus.Histogram
}

// newJoinMetrics registers with reg when it is non-nil.
func newJoinMetrics(reg prometheus.Registerer) *joinMetrics {
	m := &joinMetrics{
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waitlist_submissions_total",
				Help: "Waitlist join attempts by outcome.",
			},
			[]string{"outcome"},
		),
		attachmentBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "waitlist_attachment_bytes",
				Help:    "Size of uploaded waitlist attachments in bytes.",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.submissions, m.attachmentBytes)
	}

	return m
}

func (m *joinMetrics) observe(outcome string) {
	m.submissions.WithLabelValues(outcome).Inc()
}
