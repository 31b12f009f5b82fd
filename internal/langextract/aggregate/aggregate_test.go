package aggregate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langextract/internal/langextract/aggregate"
	"langextract/internal/langextract/types"
)

func TestAggregate_MergesInChunkOrder(t *testing.T) {
	results := []types.ChunkResult{
		{ChunkID: 1, Success: true, Extractions: []types.Extraction{{Class: "a", Text: "second"}}},
		{ChunkID: 0, Success: true, Extractions: []types.Extraction{{Class: "a", Text: "first"}}},
	}

	doc := aggregate.Aggregate(results, "first second", "doc_1")
	require.Len(t, doc.Extractions, 2)
	assert.Equal(t, "first", doc.Extractions[0].Text)
	assert.Equal(t, "second", doc.Extractions[1].Text)
}

func TestAggregate_SkipsFailedChunks(t *testing.T) {
	results := []types.ChunkResult{
		{ChunkID: 0, Success: false, Extractions: []types.Extraction{{Class: "a", Text: "ignored"}}},
		{ChunkID: 1, Success: true, Extractions: []types.Extraction{{Class: "a", Text: "kept"}}},
	}

	doc := aggregate.Aggregate(results, "source", "doc_1")
	require.Len(t, doc.Extractions, 1)
	assert.Equal(t, "kept", doc.Extractions[0].Text)
}

func TestAggregate_DeduplicatesBySimilarity(t *testing.T) {
	results := []types.ChunkResult{
		{ChunkID: 0, Success: true, Extractions: []types.Extraction{{Class: "org", Text: "Acme Corp"}}},
		{ChunkID: 1, Success: true, Extractions: []types.Extraction{{Class: "org", Text: "Acme Corp"}}},
	}

	doc := aggregate.Aggregate(results, "source", "doc_1")
	assert.Len(t, doc.Extractions, 1)
}

func TestAggregate_KeepsDistinctClassesEvenIfTextMatches(t *testing.T) {
	results := []types.ChunkResult{
		{ChunkID: 0, Success: true, Extractions: []types.Extraction{
			{Class: "org", Text: "Acme Corp"},
			{Class: "person", Text: "Acme Corp"},
		}},
	}

	doc := aggregate.Aggregate(results, "source", "doc_1")
	assert.Len(t, doc.Extractions, 2)
}

func TestAggregate_AssignsGeneratedDocIDWhenEmpty(t *testing.T) {
	doc := aggregate.Aggregate(nil, "source", "")
	assert.NotEmpty(t, doc.DocumentID)
}
