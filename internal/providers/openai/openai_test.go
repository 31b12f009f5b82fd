package openai_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langextract/internal/providers/openai"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	old := os.Getenv("OPENAI_API_KEY")
	os.Unsetenv("OPENAI_API_KEY")
	defer os.Setenv("OPENAI_API_KEY", old)

	_, err := openai.New("", "", "")
	assert.Error(t, err)
}

func TestNew_FallsBackToEnvVar(t *testing.T) {
	old := os.Getenv("OPENAI_API_KEY")
	os.Setenv("OPENAI_API_KEY", "sk-test-key")
	defer os.Setenv("OPENAI_API_KEY", old)

	p, err := openai.New("", "", "")
	require.NoError(t, err)
	assert.Equal(t, string(openai.DefaultModel), p.ModelID())
}

func TestNew_DefaultsModelWhenUnset(t *testing.T) {
	p, err := openai.New("sk-explicit-key", "", "")
	require.NoError(t, err)
	assert.Equal(t, string(openai.DefaultModel), p.ModelID())
}

func TestNew_HonorsExplicitModel(t *testing.T) {
	p, err := openai.New("sk-explicit-key", "gpt-4o", "")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", p.ModelID())
}

func TestProvider_RequiresFenceOutputAndName(t *testing.T) {
	p, err := openai.New("sk-explicit-key", "", "")
	require.NoError(t, err)
	assert.True(t, p.RequiresFenceOutput())
	assert.Equal(t, "openai", p.ProviderName())
}
