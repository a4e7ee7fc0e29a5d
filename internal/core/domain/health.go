package domain

// HealthStatus is the overall readiness of the pipeline.
type HealthStatus string

// Health states.
const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
)

// HealthReport describes the readiness of each dependency.
type HealthReport struct {
	Status         HealthStatus `json:"status"`
	Store          string       `json:"store"`
	VectorSupport  bool         `json:"vector_search"`
	EmbeddingModel string       `json:"embedding_model"`
	EmbeddingReady bool         `json:"embedding_ready"`
	Providers      []Provider   `json:"providers"`
	Problems       []string     `json:"problems,omitempty"`
}
