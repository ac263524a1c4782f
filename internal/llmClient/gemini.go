package llmclient

import (
	"context"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
// It only focuses on the API call itself. Cross-cutting concerns
// (retries, logging, metrics, tracing) are applied via Middleware.
type GeminiClient struct {
	cli *genai.Client
}

// NewGeminiClient builds a client for the Gemini API. An empty apiKey is a
// configuration error and is reported as permanent.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, NewPermanentError(fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrConfiguration))
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{cli: cli}, nil
}

func (g *GeminiClient) Name() string { return "Gemini" }
func (g *GeminiClient) Close() error { return nil }

// Generate sends prompt as a single user turn and returns the text of the
// first candidate.
func (g *GeminiClient) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, cfg.Model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}},
		toGenai(cfg),
	)
	if err != nil {
		// The API reports bad keys as API_KEY_INVALID; retrying won't help.
		if strings.Contains(err.Error(), "API_KEY") {
			return "", NewPermanentError(fmt.Errorf("%w: %v", ErrConfiguration, err))
		}
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}

func toGenai(cfg GenerationConfig) *genai.GenerateContentConfig {
	out := &genai.GenerateContentConfig{
		MaxOutputTokens: cfg.MaxOutputTokens,
		CandidateCount:  cfg.CandidateCount,
	}
	if cfg.Temperature > 0 {
		out.Temperature = genai.Ptr(cfg.Temperature)
	}
	if cfg.TopP > 0 {
		out.TopP = genai.Ptr(cfg.TopP)
	}
	if cfg.TopK > 0 {
		out.TopK = genai.Ptr(cfg.TopK)
	}
	return out
}
