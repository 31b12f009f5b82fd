package langextract_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langextract/internal/langextract/model"
	"langextract/internal/langextract/types"
	"langextract/pkg/langextract"
)

type fakeModel struct{ response string }

func (f fakeModel) Infer(ctx context.Context, prompts []string, kwargs model.Kwargs) ([][]model.Candidate, error) {
	out := make([][]model.Candidate, len(prompts))
	for i := range prompts {
		out[i] = []model.Candidate{{Text: f.response}}
	}
	return out, nil
}
func (fakeModel) RequiresFenceOutput() bool { return false }
func (fakeModel) ModelID() string           { return "fake" }
func (fakeModel) ProviderName() string      { return "fake" }

func sampleExamples() []types.ExampleData {
	return []types.ExampleData{
		{Text: "Acme Corp was founded in 1990.", Extractions: []types.Extraction{
			{Class: "organization", Text: "Acme Corp"},
		}},
	}
}

func TestExtract_RequiresExamples(t *testing.T) {
	_, err := langextract.Extract(context.Background(), "some text", "task", nil, fakeModel{}, langextract.Default())
	assert.Error(t, err)
}

func TestExtract_RequiresModel(t *testing.T) {
	_, err := langextract.Extract(context.Background(), "some text", "task", sampleExamples(), nil, langextract.Default())
	assert.Error(t, err)
}

func TestExtract_PlainTextSinglePass(t *testing.T) {
	m := fakeModel{response: `{"organization": "Acme Corp"}`}
	doc, err := langextract.Extract(context.Background(), "Acme Corp is a company.", "Extract organizations", sampleExamples(), m, langextract.Default())
	require.NoError(t, err)
	require.Len(t, doc.Extractions, 1)
	assert.Equal(t, "Acme Corp", doc.Extractions[0].Text)
	assert.NotEmpty(t, doc.DocumentID)
}

func TestExtract_FetchesURLInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Acme Corp is a company."))
	}))
	defer srv.Close()

	m := fakeModel{response: `{"organization": "Acme Corp"}`}
	doc, err := langextract.Extract(context.Background(), srv.URL, "Extract organizations", sampleExamples(), m, langextract.Default())
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp is a company.", doc.Text)
	require.Len(t, doc.Extractions, 1)
}

func TestExtract_MultipassEnabled(t *testing.T) {
	m := fakeModel{response: `{"organization": "Acme Corp"}`}
	cfg := langextract.Default()
	cfg.ExtractionPasses = 2
	cfg.EnableMultipass = true

	doc, err := langextract.Extract(context.Background(), "Acme Corp is a company.", "task", sampleExamples(), m, cfg)
	require.NoError(t, err)
	assert.Len(t, doc.Extractions, 1)
}
