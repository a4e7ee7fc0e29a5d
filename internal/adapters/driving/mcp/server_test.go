package mcp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil answer service returns error", func(t *testing.T) {
		ports := &Ports{Retrieval: &mockRetrievalService{}}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingAnswerService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		ports := &Ports{
			Answer:    &mockAnswerService{},
			Retrieval: &mockRetrievalService{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil answer service returns error", func(t *testing.T) {
		ports := &Ports{}
		err := ports.Validate()
		assert.ErrorIs(t, err, ErrMissingAnswerService)
	})

	t.Run("nil retrieval service returns error", func(t *testing.T) {
		ports := &Ports{Answer: &mockAnswerService{}}
		err := ports.Validate()
		assert.ErrorIs(t, err, ErrMissingRetrievalService)
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Answer:    &mockAnswerService{},
			Retrieval: &mockRetrievalService{},
			Ingestion: &mockIngestionService{},
			Health:    &mockHealthService{},
		}
		err := ports.Validate()
		assert.NoError(t, err)
	})
}

func TestServer_HandlerMountsMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("docuchat_documents_processed_total 1\n"))
	})
	server, err := NewServer(&Ports{
		Answer:    &mockAnswerService{},
		Retrieval: &mockRetrievalService{},
	}, WithMetrics(metrics))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "docuchat_documents_processed_total")
}
