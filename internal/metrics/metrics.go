// Package metrics exposes Prometheus counters and histograms for the intake
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ArtifactsProcessed counts finished artifact runs by outcome
	// (matched, skipped, failed).
	ArtifactsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dealintake",
		Name:      "artifacts_processed_total",
		Help:      "Artifact pipeline runs by outcome.",
	}, []string{"outcome"})

	// ClassificationsByTier counts classification results by tier and type.
	ClassificationsByTier = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dealintake",
		Name:      "classifications_total",
		Help:      "Classification results by tier and document type.",
	}, []string{"tier", "doc_type"})

	// FactsExtracted counts extracted line items by extractor and path.
	FactsExtracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dealintake",
		Name:      "facts_extracted_total",
		Help:      "Extracted facts by extractor and extraction path.",
	}, []string{"extractor", "path"})

	// OCRRequests counts OCR calls by result (ok, error).
	OCRRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dealintake",
		Name:      "ocr_requests_total",
		Help:      "OCR provider calls by result.",
	}, []string{"result"})

	// LLMRequests counts LLM fallback calls by result (ok, error).
	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dealintake",
		Name:      "llm_requests_total",
		Help:      "LLM classification calls by result.",
	}, []string{"result"})

	// ProcessingDuration observes per-artifact pipeline latency.
	ProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "dealintake",
		Name:      "artifact_processing_seconds",
		Help:      "Artifact pipeline run duration.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	// QueueDepth tracks the number of queued artifacts.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "dealintake",
		Name:      "queue_depth",
		Help:      "Artifacts currently queued.",
	})
)
