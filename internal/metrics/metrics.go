package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExtractionAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfapps_extraction_attempts_total",
			Help: "Listing extraction attempts by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sfapps_extraction_duration_seconds",
			Help:    "Duration of a single strategy extraction in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfapps_cache_lookups_total",
			Help: "Listing cache lookups by result",
		},
		[]string{"result"},
	)

	DecksGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfapps_decks_generated_total",
			Help: "Generated decks by output format",
		},
		[]string{"format"},
	)

	PDFConversions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfapps_pdf_conversions_total",
			Help: "PDF conversions by outcome",
		},
		[]string{"outcome"},
	)
)

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
)
