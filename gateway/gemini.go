package gateway

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// ProviderNameGemini identifies the Gemini-backed provider.
const ProviderNameGemini = "gemini"

// GeminiProvider translates through the Gemini API.
type GeminiProvider struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

// NewGeminiProvider creates the Gemini provider.
func NewGeminiProvider(ctx context.Context, apiKey, model string, maxTokens int) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiProvider{
		client:    client,
		model:     model,
		maxTokens: int32(maxTokens),
	}, nil
}

func (p *GeminiProvider) Name() string {
	return ProviderNameGemini
}

// Probe issues a one-token generation, the cheapest call that exercises the
// API key end to end.
func (p *GeminiProvider) Probe(ctx context.Context) error {
	cfg := &genai.GenerateContentConfig{MaxOutputTokens: 1}
	if _, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text("ping"), cfg); err != nil {
		return fmt.Errorf("gemini key validation failed: %w", err)
	}
	return nil
}

func (p *GeminiProvider) Complete(ctx context.Context, prompt string) (string, Usage, error) {
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens:  p.maxTokens,
		ResponseMIMEType: "application/json",
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", Usage{}, fmt.Errorf("gemini request failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", Usage{}, fmt.Errorf("gemini returned no content")
	}

	var usage Usage
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.ResponseTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return text, usage, nil
}
