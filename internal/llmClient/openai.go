package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
// The SDK's own retries are disabled; the Retry middleware owns retrying.
type OpenAIClient struct {
	cli openai.Client
}

// NewOpenAIClient builds a client for the chat completions API. baseURL may
// be empty for the official endpoint.
func NewOpenAIClient(apiKey, baseURL string) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, NewPermanentError(fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrConfiguration))
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{cli: openai.NewClient(opts...)}, nil
}

func (o *OpenAIClient) Name() string { return "OpenAI" }
func (o *OpenAIClient) Close() error { return nil }

// Generate sends prompt as a single user message. TopK has no equivalent in
// the chat completions API and is ignored.
func (o *OpenAIClient) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	}
	if cfg.Temperature > 0 {
		params.Temperature = openai.Float(float64(cfg.Temperature))
	}
	if cfg.TopP > 0 {
		params.TopP = openai.Float(float64(cfg.TopP))
	}
	if cfg.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(cfg.MaxOutputTokens))
	}
	if cfg.CandidateCount > 0 {
		params.N = openai.Int(int64(cfg.CandidateCount))
	}

	resp, err := o.cli.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			switch apiErr.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				return "", NewPermanentError(fmt.Errorf("%w: %v", ErrConfiguration, err))
			case http.StatusBadRequest, http.StatusNotFound:
				return "", NewPermanentError(err)
			}
		}
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
