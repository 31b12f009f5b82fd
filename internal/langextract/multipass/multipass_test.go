package multipass_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langextract/internal/langextract/alignment"
	"langextract/internal/langextract/annotate"
	"langextract/internal/langextract/model"
	"langextract/internal/langextract/multipass"
	"langextract/internal/langextract/prompting"
)

// sequencedModel returns a different canned response on each successive
// call, looping back to the last response once exhausted.
type sequencedModel struct {
	responses []string
	call      int
}

func (s *sequencedModel) Infer(ctx context.Context, prompts []string, kwargs model.Kwargs) ([][]model.Candidate, error) {
	resp := s.responses[s.call]
	if s.call < len(s.responses)-1 {
		s.call++
	}
	out := make([][]model.Candidate, len(prompts))
	for i := range prompts {
		out[i] = []model.Candidate{{Text: resp}}
	}
	return out, nil
}

func (s *sequencedModel) RequiresFenceOutput() bool { return false }
func (s *sequencedModel) ModelID() string           { return "sequenced-fake" }
func (s *sequencedModel) ProviderName() string      { return "fake" }

func baseAnnotateConfig() annotate.Config {
	v := false
	return annotate.Config{
		MaxCharBuffer: 1000,
		BatchSize:     10,
		Workers:       10,
		Temperature:   0.5,
		Format:        prompting.FormatJSON,
		FenceOutput:   &v,
		AlignOptions:  alignment.DefaultOptions(),
	}
}

func TestExtractMultipass_EarlyTerminatesWhenPassAddsNothing(t *testing.T) {
	m := &sequencedModel{responses: []string{
		`{"organization": "Acme Corp"}`,
		`{"organization": "Acme Corp"}`,
	}}
	a := annotate.New(m, "task", nil, baseAnnotateConfig(), nil)
	cfg := multipass.DefaultConfig()
	cfg.MaxPasses = 5
	cfg.MinExtractionsPerChunk = 100 // keep the chunk re-queued so only "added == 0" can stop the loop

	ctrl := multipass.New(a, cfg, nil)
	doc, stats, err := ctrl.ExtractMultipass(context.Background(), "Acme Corp is great.", "", "doc_1")
	require.NoError(t, err)
	require.Len(t, doc.Extractions, 1)
	// Second pass adds nothing new (same extraction already seen), so the
	// controller must stop well short of MaxPasses.
	assert.Less(t, len(stats.Passes), cfg.MaxPasses)
}

func TestExtractMultipass_AccumulatesAcrossPasses(t *testing.T) {
	m := &sequencedModel{responses: []string{
		`{"organization": "Acme Corp"}`,
		`{"person": "Jane Doe"}`,
		`{"person": "Jane Doe"}`,
	}}
	a := annotate.New(m, "task", nil, baseAnnotateConfig(), nil)

	cfg := multipass.DefaultConfig()
	cfg.MaxPasses = 3
	cfg.MinExtractionsPerChunk = 100 // force every chunk to look under-extracted

	ctrl := multipass.New(a, cfg, nil)
	doc, stats, err := ctrl.ExtractMultipass(context.Background(), "Acme Corp hired Jane Doe today.", "", "doc_1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(doc.Extractions), 1)
	assert.NotZero(t, stats.Quality.High+stats.Quality.Medium+stats.Quality.Low)
}

func TestExtractMultipass_InferenceErrorPropagates(t *testing.T) {
	a := annotate.New(&erroringModel{}, "task", nil, baseAnnotateConfig(), nil)
	ctrl := multipass.New(a, multipass.DefaultConfig(), nil)

	_, _, err := ctrl.ExtractMultipass(context.Background(), "short text", "", "doc_1")
	assert.Error(t, err)
}

type erroringModel struct{}

func (erroringModel) Infer(ctx context.Context, prompts []string, kwargs model.Kwargs) ([][]model.Candidate, error) {
	return nil, fmt.Errorf("boom")
}
func (erroringModel) RequiresFenceOutput() bool { return false }
func (erroringModel) ModelID() string           { return "erroring-fake" }
func (erroringModel) ProviderName() string      { return "fake" }
