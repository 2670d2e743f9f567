package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the validation counters on the service's /metrics
// endpoint.
type Metrics struct {
	FilesValidated  *prometheus.CounterVec
	SevereReturns   prometheus.Counter
	RapFilesEmitted prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FilesValidated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tap_files_validated_total",
			Help: "TAP files validated, labeled by terminal outcome.",
		}, []string{"outcome"}),
		SevereReturns: factory.NewCounter(prometheus.CounterOpts{
			Name: "rap_severe_returns_total",
			Help: "Severe return entries accumulated across all RAP files.",
		}),
		RapFilesEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "rap_files_emitted_total",
			Help: "RAP counter-files written and handed off.",
		}),
	}
}
