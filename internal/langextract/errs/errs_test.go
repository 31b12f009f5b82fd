package errs_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"langextract/internal/langextract/errs"
)

func TestError_IsMatchesSentinelByKind(t *testing.T) {
	err := errs.New(errs.KindParsing, "bad json")
	assert.True(t, errors.Is(err, errs.ErrParsing))
	assert.False(t, errors.Is(err, errs.ErrNetwork))
}

func TestWrap_PreservesCauseInMessage(t *testing.T) {
	cause := errors.New("underlying failure")
	err := errs.Wrap(errs.KindNetwork, "fetch failed", cause)
	assert.Contains(t, err.Error(), "fetch failed")
	assert.Contains(t, err.Error(), "underlying failure")
	assert.True(t, errors.Is(err, errs.ErrNetwork))
}

func TestWrapProvider_IncludesProviderTag(t *testing.T) {
	err := errs.WrapProvider(errs.KindInference, "call failed", "openai", errors.New("rate limited"))
	assert.Contains(t, err.Error(), "openai")
	assert.Contains(t, err.Error(), "inference")
}

func TestNew_NeverPanicsOnUnknownKind(t *testing.T) {
	err := errs.New(errs.Kind("made_up"), "whatever")
	assert.NotPanics(t, func() { _ = err.Error() })
	assert.True(t, errors.Is(err, errs.ErrProcessing), "unrecognized kinds fall back to the processing sentinel")
}
