package rawoutput_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langextract/internal/langextract/rawoutput"
)

func TestWriter_Write_PersistsContentAndHeader(t *testing.T) {
	dir := t.TempDir()
	w, err := rawoutput.New(dir, "test-meta", "json")
	require.NoError(t, err)

	path, err := w.Write(`{"hello":"world"}`)
	require.NoError(t, err)
	require.FileExists(t, path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "test-meta")
	assert.Contains(t, string(content), `{"hello":"world"}`)
	assert.Contains(t, string(content), "=== Raw Model Output ===")
}

func TestWriter_Write_FilenamesDoNotCollideAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	w, err := rawoutput.New(dir, "meta", "json")
	require.NoError(t, err)

	p1, err := w.Write("first")
	require.NoError(t, err)
	p2, err := w.Write("second")
	require.NoError(t, err)

	assert.NotEqual(t, p1, p2)
}

func TestNew_CreatesDirectoryIfMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "raw")
	_, err := rawoutput.New(dir, "meta", "json")
	require.NoError(t, err)
	assert.DirExists(t, dir)
}
