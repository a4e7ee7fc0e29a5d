package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docuchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docuchat/internal/core/domain"
)

type mockIngestion struct {
	registered []domain.Document
	processed  []string
	result     *domain.IngestResult
	err        error
}

func (m *mockIngestion) Register(_ context.Context, doc domain.Document) error {
	m.registered = append(m.registered, doc)
	return nil
}

func (m *mockIngestion) Process(_ context.Context, documentID, filePath, _ string) (*domain.IngestResult, error) {
	m.processed = append(m.processed, documentID+":"+filePath)
	return m.result, m.err
}

type mockRetrieval struct {
	results   []domain.RetrievedChunk
	chunk     *domain.RetrievedChunk
	err       error
	lastQuery string
	lastDocs  []string
	lastTopK  int
}

func (m *mockRetrieval) Search(
	_ context.Context, query string, documentIDs []string, _ string, topK int, _ float64,
) ([]domain.RetrievedChunk, error) {
	m.lastQuery = query
	m.lastDocs = documentIDs
	m.lastTopK = topK
	return m.results, m.err
}

func (m *mockRetrieval) ResolveNames(_ context.Context, _ []string, _ string) []string { return nil }

func (m *mockRetrieval) GetChunk(_ context.Context, _, _ string) (*domain.RetrievedChunk, error) {
	return m.chunk, m.err
}

type mockAnswer struct {
	result  domain.AnswerResult
	summary string
	lastReq domain.AnswerRequest
}

func (m *mockAnswer) Answer(_ context.Context, req domain.AnswerRequest) domain.AnswerResult {
	m.lastReq = req
	return m.result
}

func (m *mockAnswer) SummarizeDocuments(_ context.Context, _ []string, _ string, _ domain.Provider) string {
	return m.summary
}

type mockHealth struct {
	report domain.HealthReport
}

func (m *mockHealth) Check(_ context.Context) domain.HealthReport { return m.report }

// testServices are the mocks installed by setupTestServices.
type testServices struct {
	ingestion *mockIngestion
	retrieval *mockRetrieval
	answer    *mockAnswer
	health    *mockHealth
	config    *file.ConfigStore
	migrated  []string
}

// setupTestServices installs mocks and a temp-dir config store, and
// restores the previous state and flag values when the test ends.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()
	store, err := file.NewConfigStore(t.TempDir())
	require.NoError(t, err)

	ts := &testServices{
		ingestion: &mockIngestion{result: &domain.IngestResult{Status: domain.IngestSuccess}},
		retrieval: &mockRetrieval{},
		answer:    &mockAnswer{},
		health:    &mockHealth{report: domain.HealthReport{Status: domain.HealthHealthy}},
		config:    store,
	}

	old := services
	services = &Services{
		Ingestion: ts.ingestion,
		Retrieval: ts.retrieval,
		Answer:    ts.answer,
		Health:    ts.health,
		Config:    store,
	}
	services.Migrate = func(direction string, steps int) error {
		ts.migrated = append(ts.migrated, direction)
		if steps > 0 {
			ts.migrated = append(ts.migrated, "steps")
		}
		return nil
	}
	t.Cleanup(func() {
		services = old
		resetFlags(rootCmd)
	})
	return ts
}

// resetFlags restores every flag to its default so tests do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// run executes the root command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return buf.String(), err
}
