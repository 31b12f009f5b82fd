package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langextract/internal/langextract/resolver"
)

func TestValidateAndParse_FlatObject(t *testing.T) {
	raw := `{"organization": "Acme Corp", "date": "1990"}`
	extractions, report, err := resolver.ValidateAndParse(raw, resolver.Options{})
	require.NoError(t, err)
	require.Len(t, extractions, 2)
	assert.Empty(t, report.Errors)

	byClass := map[string]string{}
	for _, e := range extractions {
		byClass[e.Class] = e.Text
	}
	assert.Equal(t, "Acme Corp", byClass["organization"])
	assert.Equal(t, "1990", byClass["date"])
}

func TestValidateAndParse_ArrayOfItemsSetsGroupIndex(t *testing.T) {
	raw := `[{"organization": "Acme Corp"}, {"organization": "Beta Inc"}]`
	extractions, _, err := resolver.ValidateAndParse(raw, resolver.Options{})
	require.NoError(t, err)
	require.Len(t, extractions, 2)
	require.NotNil(t, extractions[0].GroupIndex)
	require.NotNil(t, extractions[1].GroupIndex)
	assert.Equal(t, 0, *extractions[0].GroupIndex)
	assert.Equal(t, 1, *extractions[1].GroupIndex)
}

func TestValidateAndParse_WrappedDataKey(t *testing.T) {
	raw := `{"data": [{"organization": "Acme Corp"}]}`
	extractions, _, err := resolver.ValidateAndParse(raw, resolver.Options{})
	require.NoError(t, err)
	require.Len(t, extractions, 1)
	assert.Equal(t, "organization", extractions[0].Class)
}

func TestValidateAndParse_WrappedResultsKey(t *testing.T) {
	raw := `{"results": [{"organization": "Acme Corp"}]}`
	extractions, _, err := resolver.ValidateAndParse(raw, resolver.Options{})
	require.NoError(t, err)
	require.Len(t, extractions, 1)
}

func TestValidateAndParse_FenceRecoveryViaSubstring(t *testing.T) {
	raw := "Sure, here you go:\n{\"organization\": \"Acme Corp\"}\nHope that helps!"
	extractions, report, err := resolver.ValidateAndParse(raw, resolver.Options{})
	require.NoError(t, err)
	require.Len(t, extractions, 1)
	assert.Equal(t, raw, report.RawText)
}

func TestValidateAndParse_UnparsableFails(t *testing.T) {
	raw := "not json at all, no braces"
	_, report, err := resolver.ValidateAndParse(raw, resolver.Options{})
	require.Error(t, err)
	require.NotEmpty(t, report.Errors)
}

func TestValidateAndParse_RequireAllFieldsReportsMissing(t *testing.T) {
	raw := `{"organization": "Acme Corp"}`
	_, report, err := resolver.ValidateAndParse(raw, resolver.Options{
		ExpectedClasses:  []string{"organization", "date"},
		RequireAllFields: true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, report.Errors)
	assert.Contains(t, report.Errors[0], "date")
}

func TestValidateAndParse_EnableCoercionSetsAttributes(t *testing.T) {
	raw := `{"score": "42"}`
	extractions, _, err := resolver.ValidateAndParse(raw, resolver.Options{EnableCoercion: true})
	require.NoError(t, err)
	require.Len(t, extractions, 1)
	require.NotNil(t, extractions[0].Attributes)
	assert.Equal(t, "integer", extractions[0].Attributes["coerced_kind"])
	assert.EqualValues(t, 42, extractions[0].Attributes["coerced_value"])
}

type fakeWriter struct {
	written string
	path    string
	err     error
}

func (f *fakeWriter) Write(raw string) (string, error) {
	f.written = raw
	if f.err != nil {
		return "", f.err
	}
	return f.path, nil
}

func TestValidateAndParse_PersistsRawOutputBeforeParsing(t *testing.T) {
	fw := &fakeWriter{path: "/tmp/raw_output_x.txt"}
	raw := `{"organization": "Acme Corp"}`
	_, report, err := resolver.ValidateAndParse(raw, resolver.Options{RawWriter: fw})
	require.NoError(t, err)
	assert.Equal(t, raw, fw.written)
	assert.Equal(t, "/tmp/raw_output_x.txt", report.RawOutputPath)
}
