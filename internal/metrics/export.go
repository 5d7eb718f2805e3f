package metrics

import (
	"time"

	"github.com/SeakMengs/CertEditor/pkg/certedit"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	exportDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "certeditor",
			Subsystem: "export",
			Name:      "duration_seconds",
			Help:      "Time from export request to finished PDF.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16},
		},
		[]string{"document_type", "outcome"},
	)

	exportTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "certeditor",
			Subsystem: "export",
			Name:      "total",
			Help:      "Export attempts by outcome, skipped ones were dropped while another export ran.",
		},
		[]string{"document_type", "outcome"},
	)

	openEditors = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "certeditor",
			Subsystem: "session",
			Name:      "open_editors",
			Help:      "Editors currently open.",
		},
	)
)

// ObserveExport matches certedit.ExporterOptions.Observe.
func ObserveExport(d certedit.DocumentType, outcome certedit.ExportOutcome, elapsed time.Duration) {
	register()

	labels := prometheus.Labels{"document_type": string(d), "outcome": string(outcome)}
	exportTotal.With(labels).Inc()
	if outcome != certedit.ExportSkipped {
		exportDuration.With(labels).Observe(elapsed.Seconds())
	}
}

func SetOpenEditors(n int) {
	register()
	openEditors.Set(float64(n))
}
