package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ollamaembed "github.com/custodia-labs/docuchat/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docuchat/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/docuchat/internal/config"
	"github.com/custodia-labs/docuchat/internal/core/domain"
	"github.com/custodia-labs/docuchat/internal/core/ports/driven"
)

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.EmbeddingConfig
		wantType any
		wantErr  bool
	}{
		{
			name:     "ollama",
			cfg:      config.EmbeddingConfig{Provider: config.EmbeddingOllama, Dimensions: 384},
			wantType: &ollamaembed.EmbeddingService{},
		},
		{
			name:     "openai compatible",
			cfg:      config.EmbeddingConfig{Provider: config.EmbeddingOpenAI, BaseURL: "http://tei:8080/v1"},
			wantType: &openaiembed.EmbeddingService{},
		},
		{
			name:    "unsupported",
			cfg:     config.EmbeddingConfig{Provider: "anthropic"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, svc)
			assert.Equal(t, 384, svc.Dimensions())
		})
	}
}

func TestCreateLLMServices(t *testing.T) {
	tests := []struct {
		name         string
		cfg          config.LLMConfig
		wantProvider []domain.Provider
		wantWarnings int
	}{
		{
			name:         "no keys",
			wantWarnings: 2,
		},
		{
			name:         "groq only",
			cfg:          config.LLMConfig{Groq: config.ProviderConfig{APIKey: "g"}},
			wantProvider: []domain.Provider{domain.ProviderGroq},
			wantWarnings: 1,
		},
		{
			name: "both",
			cfg: config.LLMConfig{
				Groq:     config.ProviderConfig{APIKey: "g"},
				Cerebras: config.ProviderConfig{APIKey: "c", Model: "llama3.3-70b"},
			},
			wantProvider: []domain.Provider{domain.ProviderGroq, domain.ProviderCerebras},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			services, warnings, err := CreateLLMServices(tt.cfg)

			require.NoError(t, err)
			assert.Len(t, warnings, tt.wantWarnings)
			var got []domain.Provider
			for _, s := range services {
				got = append(got, s.Provider())
			}
			assert.Equal(t, tt.wantProvider, got)
		})
	}
}

func TestValidateEmbeddingService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	svc, err := CreateEmbeddingService(config.EmbeddingConfig{Provider: config.EmbeddingOllama, BaseURL: srv.URL})
	require.NoError(t, err)

	err = ValidateEmbeddingService(context.Background(), svc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))
}

func TestValidateLLMServices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") == "Bearer good" {
			_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid key"}}`))
	}))
	defer srv.Close()

	services, _, err := CreateLLMServices(config.LLMConfig{
		Groq:     config.ProviderConfig{APIKey: "good", BaseURL: srv.URL},
		Cerebras: config.ProviderConfig{APIKey: "bad", BaseURL: srv.URL},
	})
	require.NoError(t, err)

	err = ValidateLLMServices(context.Background(), services)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cerebras")
	assert.NotContains(t, err.Error(), "groq")

	assert.NoError(t, ValidateLLMServices(context.Background(), []driven.LLMService{services[0]}))
}
