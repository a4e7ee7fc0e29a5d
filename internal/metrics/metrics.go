// Package metrics defines the Prometheus collectors for ingestion,
// retrieval and answer generation.
//
// Collectors live on a private registry so tests can create independent
// instances. All methods are safe to call on a nil *Metrics.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/docuchat/internal/logger"
)

const namespace = "docuchat"

// Metrics holds the registered collectors.
type Metrics struct {
	registry *prometheus.Registry

	documents        *prometheus.CounterVec
	chunksStored     prometheus.Counter
	chunksFailed     prometheus.Counter
	ocrPages         prometheus.Counter
	retrievalLatency prometheus.Histogram
	llmCalls         *prometheus.CounterVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_ingested_total",
			Help:      "Documents processed by final status.",
		}, []string{"status"}),
		chunksStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_stored_total",
			Help:      "Chunk and embedding pairs persisted.",
		}),
		chunksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_failed_total",
			Help:      "Chunks skipped after a per-chunk failure.",
		}),
		ocrPages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ocr_pages_total",
			Help:      "PDF pages whose text came partly or wholly from OCR.",
		}),
		retrievalLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Time spent embedding a query and searching the vector store.",
			Buckets:   prometheus.DefBuckets,
		}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "LLM completion calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
	}

	m.registry.MustRegister(
		m.documents,
		m.chunksStored,
		m.chunksFailed,
		m.ocrPages,
		m.retrievalLatency,
		m.llmCalls,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// DocumentProcessed counts a finished ingestion.
func (m *Metrics) DocumentProcessed(status string) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(status).Inc()
}

// ChunksStored adds persisted chunk pairs.
func (m *Metrics) ChunksStored(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.chunksStored.Add(float64(n))
}

// ChunksFailed adds skipped chunks.
func (m *Metrics) ChunksFailed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.chunksFailed.Add(float64(n))
}

// OCRPages adds pages that used OCR.
func (m *Metrics) OCRPages(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ocrPages.Add(float64(n))
}

// ObserveRetrieval records a retrieval duration.
func (m *Metrics) ObserveRetrieval(d time.Duration) {
	if m == nil {
		return
	}
	m.retrievalLatency.Observe(d.Seconds())
}

// LLMCall counts a completion call. A nil err is recorded as "ok".
func (m *Metrics) LLMCall(provider string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.llmCalls.WithLabelValues(provider, outcome).Inc()
}

// Handler returns an HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr in a background goroutine and returns
// the server so callers can shut it down.
func (m *Metrics) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error: %v", fmt.Errorf("listen %s: %w", addr, err))
		}
	}()
	return server
}
