package app

import (
	"context"
	"errors"
	"fmt"
	"net"

	"go.uber.org/zap"

	"nexa/internal/gateway/auth"
	"nexa/internal/gateway/config"
	"nexa/internal/gateway/handler"
	"nexa/internal/gateway/server"
	"nexa/internal/llm"
	llmclient "nexa/internal/llmClient"
	"nexa/internal/observability"
	"nexa/internal/pipeline"
	"nexa/internal/whop"
)

type App struct {
	server  *server.Server
	client  llm.LLMClient
	tracing *observability.Tracing
	log     *zap.Logger
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	// Observability
	metrics := observability.NewMetrics()
	tracing, err := observability.InitTracing(ctx, log.Named("otel"), cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// Model client and pipeline
	client, err := NewLLMClient(ctx, cfg.LLM, log.Named("llm"), metrics, tracing)
	if err != nil {
		_ = tracing.Shutdown(ctx)
		return nil, err
	}
	p := pipeline.New(client, StageModels(cfg.LLM),
		pipeline.WithLogger(log.Named("pipeline")),
		pipeline.WithMetrics(metrics),
		pipeline.WithTracer(tracing.Tracer),
	)

	// Identity and host platform
	var verifier *auth.Verifier
	if cfg.Auth.PublicKeyPEM != "" {
		verifier, err = auth.NewVerifier(cfg.Auth.PublicKeyPEM, cfg.Auth.AppID, cfg.Auth.CacheSize)
		if err != nil {
			_ = client.Close()
			_ = tracing.Shutdown(ctx)
			return nil, err
		}
	} else {
		log.Warn("no token public key configured; every caller is anonymous")
	}
	platform := whop.NewClient(cfg.Whop.BaseURL, cfg.Whop.APIKey, whop.WithLogger(log.Named("whop")))

	// Routing & Server
	h := handler.New(p,
		handler.WithPlatform(platform, cfg.Whop.PlanID),
		handler.WithStageTimeout(cfg.StageTimeout),
		handler.WithLogger(log.Named("handler")),
	)
	mux := server.NewMux(server.MuxConfig{
		Handler:     h,
		Auth:        auth.Middleware(verifier, cfg.Auth.Required, log.Named("auth")),
		Metrics:     metrics,
		Log:         log.Named("access"),
		CORSOrigins: cfg.CORSOrigins,
	})

	return &App{
		server:  server.New(cfg.Port, mux, log),
		client:  client,
		tracing: tracing,
		log:     log,
	}, nil
}

// NewLLMClient builds the configured provider and layers the middleware
// stack on top: tracing, retry, rate limit, metrics, logging (outermost
// first). Each retry attempt is rate limited and counted separately.
func NewLLMClient(ctx context.Context, cfg config.LLMConfig, log *zap.Logger, m *observability.Metrics, tracing *observability.Tracing) (llm.LLMClient, error) {
	var (
		base llm.LLMClient
		err  error
	)
	switch cfg.Provider {
	case config.ProviderFake:
		log.Warn("using fake model provider")
		base = llm.NewFakeClient()
	case config.ProviderOpenAI:
		base, err = llmclient.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	default:
		base, err = llmclient.NewGeminiClient(ctx, cfg.APIKey)
	}
	switch {
	case errors.Is(err, llmclient.ErrConfiguration):
		// Keep serving; every stage answers CONFIGURATION_ERROR.
		log.Error("model client unavailable", zap.String("provider", cfg.Provider), zap.Error(err))
		base = &llmclient.UnavailableClient{Err: err}
	case err != nil:
		return nil, fmt.Errorf("create %s client: %w", cfg.Provider, err)
	}

	policy := llm.RetryPolicy{
		MaxAttempts: cfg.MaxAttempts,
		Backoff:     llm.ExponentialBackoff(cfg.BackoffBase),
		Sleep:       llm.SleepContext,
	}
	mws := []llm.Middleware{}
	if tracing != nil {
		mws = append(mws, llm.WithTracing(tracing.Tracer))
	}
	mws = append(mws,
		llm.Retry(policy, log, m),
		llm.RateLimit(cfg.RPS, cfg.Burst),
		llm.WithMetrics(m),
		llm.WithLogging(log),
		llm.WithHooks(),
	)
	return llm.Wrap(base, mws...), nil
}

// StageModels picks the model per stage. An OpenAI-compatible provider uses
// its single configured model everywhere; Gemini keeps per-stage defaults.
func StageModels(cfg config.LLMConfig) pipeline.Models {
	if cfg.Provider == config.ProviderOpenAI {
		m := cfg.OpenAIModel
		if m == "" {
			m = llmclient.DefaultOpenAIModel
		}
		return pipeline.Models{Refine: m, Spec: m, Generate: m}
	}
	return pipeline.Models{
		Refine:   cfg.RefineModel,
		Spec:     cfg.SpecModel,
		Generate: cfg.GenerateModel,
	}
}

func (a *App) Start() error {
	return a.server.Start()
}

// Serve runs the server on l; used by tests and callers that pick the port.
func (a *App) Serve(l net.Listener) error {
	return a.server.Serve(l)
}

// Shutdown stops the server, then releases the model client and flushes
// traces.
func (a *App) Shutdown(ctx context.Context) error {
	return errors.Join(
		a.server.Shutdown(ctx),
		a.client.Close(),
		a.tracing.Shutdown(ctx),
	)
}
