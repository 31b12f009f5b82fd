// Package openai implements model.LanguageModel against the OpenAI chat
// completions API, using github.com/sashabaranov/go-openai exactly the way
// the teacher's internal/services/openai_provider.go builds its embedding
// client: an API-key-with-env-fallback constructor, logrus for every
// initialization and failure log line, and errors wrapped with context
// rather than returned bare.
package openai

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	openaisdk "github.com/sashabaranov/go-openai"

	"langextract/internal/langextract/errs"
	"langextract/internal/langextract/model"
)

// DefaultModel is used when no model id is configured.
const DefaultModel = openaisdk.GPT4oMini

// Provider adapts an *openaisdk.Client to model.LanguageModel.
type Provider struct {
	client  *openaisdk.Client
	modelID string
}

// New builds a Provider. apiKey falling back to OPENAI_API_KEY mirrors the
// teacher's NewOpenAIProvider; baseURL overrides the default endpoint when
// non-empty (for OpenAI-compatible gateways).
func New(apiKey, modelID, baseURL string) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, errs.New(errs.KindConfiguration, "openai: no API key provided and OPENAI_API_KEY is unset")
	}
	if modelID == "" {
		modelID = string(DefaultModel)
	}

	cfg := openaisdk.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	client := openaisdk.NewClientWithConfig(cfg)

	log.Infof("openai provider initialized with model %s", modelID)
	return &Provider{client: client, modelID: modelID}, nil
}

// ModelID reports the configured model id.
func (p *Provider) ModelID() string { return p.modelID }

// ProviderName reports the provider label used in error/progress surfaces.
func (p *Provider) ProviderName() string { return "openai" }

// RequiresFenceOutput reports true: chat models commonly wrap JSON in a
// ```json fence, so the annotator strips a fence before parsing.
func (p *Provider) RequiresFenceOutput() bool { return true }

// Infer issues one chat completion request per prompt, sequentially, and
// returns every choice of each response as that prompt's candidates (the
// request does not set N, so normally there is one). The core
// itself drives any cross-prompt concurrency (§5); this adapter does not
// fan out internally so that a caller's concurrency limit is the only limit
// in effect.
func (p *Provider) Infer(ctx context.Context, prompts []string, kwargs model.Kwargs) ([][]model.Candidate, error) {
	out := make([][]model.Candidate, len(prompts))

	temperature := float32(0.5)
	if t, ok := kwargs["temperature"].(float64); ok {
		temperature = float32(t)
	}
	maxTokens := 0
	if m, ok := kwargs["max_tokens"].(int); ok {
		maxTokens = m
	}

	for i, prompt := range prompts {
		req := openaisdk.ChatCompletionRequest{
			Model:       p.modelID,
			Temperature: temperature,
			Messages: []openaisdk.ChatCompletionMessage{
				{Role: openaisdk.ChatMessageRoleUser, Content: prompt},
			},
		}
		if maxTokens > 0 {
			req.MaxTokens = maxTokens
		}

		resp, err := p.client.CreateChatCompletion(ctx, req)
		if err != nil {
			log.Errorf("openai: chat completion failed: %v", err)
			return nil, errs.WrapProvider(errs.KindInference, "openai: chat completion failed", p.ProviderName(), err)
		}
		if len(resp.Choices) == 0 {
			return nil, errs.WrapProvider(errs.KindInference, "openai: no choices returned", p.ProviderName(), fmt.Errorf("empty choices"))
		}

		candidates := make([]model.Candidate, 0, len(resp.Choices))
		for _, choice := range resp.Choices {
			candidates = append(candidates, model.Candidate{Text: choice.Message.Content})
		}
		out[i] = candidates

		log.Debugf("openai: prompt %d used %d prompt tokens, %d completion tokens",
			i, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}

	return out, nil
}

var _ model.LanguageModel = (*Provider)(nil)
