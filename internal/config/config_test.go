package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"langextract/internal/config"
)

func TestDefault_MatchesDocumentedValues(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, 1000, cfg.MaxCharBuffer)
	assert.Equal(t, 10, cfg.BatchLength)
	assert.Equal(t, 10, cfg.MaxWorkers)
	assert.Equal(t, 0.5, cfg.Temperature)
	assert.Equal(t, "json", cfg.FormatType)
	assert.Equal(t, 1, cfg.ExtractionPasses)
	assert.Equal(t, 1, cfg.MultipassMinExtractions)
	assert.Equal(t, 0.3, cfg.MultipassQualityThreshold)
}

func TestLoad_FallsBackToDefaultsWithoutConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, 1000, cfg.MaxCharBuffer)
}
