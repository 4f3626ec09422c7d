// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IdentifyTotal counts identifications by confidence tier and style.
	IdentifyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "covermatch_identify_total",
		Help: "Total number of cover identifications by confidence tier and style",
	}, []string{"tier", "style"})

	// IdentifyErrors counts failed identifications by failing stage.
	IdentifyErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "covermatch_identify_errors_total",
		Help: "Total number of failed cover identifications by stage",
	}, []string{"stage"})

	// IdentifyDuration measures end-to-end identification latency.
	IdentifyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "covermatch_identify_duration_seconds",
		Help:    "Cover identification latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// EmbeddingDuration measures one provider embedding call.
	EmbeddingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "covermatch_embedding_duration_seconds",
		Help:    "Embedding provider call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	// EmbeddingErrors counts failed provider calls.
	EmbeddingErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "covermatch_embedding_errors_total",
		Help: "Total number of failed embedding provider calls",
	}, []string{"provider"})

	// ProviderBreakerState is the circuit breaker state (0 closed, 1 half-open, 2 open).
	ProviderBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "covermatch_provider_breaker_state",
		Help: "Embedding provider circuit breaker state (0 closed, 1 half-open, 2 open)",
	}, []string{"provider"})

	// RegistrationsTotal counts registered books.
	RegistrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "covermatch_registrations_total",
		Help: "Total number of registered book covers",
	})

	// DeletionsTotal counts deleted books.
	DeletionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "covermatch_deletions_total",
		Help: "Total number of deleted books",
	})

	// CandidateCount is the number of cover embeddings scanned by the last identification.
	CandidateCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "covermatch_candidates",
		Help: "Number of cover embeddings scanned by the most recent identification",
	})

	// IncorrectMatchReports counts user reports of wrong matches.
	IncorrectMatchReports = promauto.NewCounter(prometheus.CounterOpts{
		Name: "covermatch_incorrect_match_reports_total",
		Help: "Total number of incorrect match reports from users",
	})
)
