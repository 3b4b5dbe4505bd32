package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	refreshes *prometheus.CounterVec
	duration  prometheus.Summary
	documents prometheus.Counter
	tables    prometheus.Counter
	warnings  *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_refresh_total",
			Help: "Number of refreshes by result",
		}, []string{"result"}),
		duration: prometheus.NewSummary(prometheus.SummaryOpts{
			Name: "timetable_refresh_duration_seconds",
			Help: "Time taken by a refresh",
		}),
		documents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timetable_documents_extracted_total",
			Help: "Number of PDFs extracted",
		}),
		tables: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timetable_tables_extracted_total",
			Help: "Number of tables reconstructed",
		}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_extraction_warnings_total",
			Help: "Number of extraction warnings by kind",
		}, []string{"kind"}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.refreshes, m.duration, m.documents, m.tables, m.warnings} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
