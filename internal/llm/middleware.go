package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"nexa/internal/observability"
)

// Middleware decorates an LLMClient to inject cross-cutting concerns
// (rate limiting, retries, logging, metrics, tracing).
type Middleware func(LLMClient) LLMClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner LLMClient, mws ...Middleware) LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// generateFunc adapts a function to LLMClient while delegating Name and
// Close to the wrapped client.
type generateFunc struct {
	next LLMClient
	fn   func(ctx context.Context, prompt string, cfg GenerationConfig) (string, error)
}

func (g *generateFunc) Name() string { return g.next.Name() }
func (g *generateFunc) Close() error { return g.next.Close() }
func (g *generateFunc) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	return g.fn(ctx, prompt, cfg)
}

// -------- Logging & Hooks --------

// WithLogging logs request and response sizes and errors at debug/warn.
func WithLogging(log *zap.Logger) Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next LLMClient) LLMClient {
		return &generateFunc{next: next, fn: func(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
			phase := PhaseFrom(ctx)
			log.Debug("llm request",
				zap.String("phase", phase),
				zap.String("model", cfg.Model),
				zap.Int("prompt_bytes", len(prompt)))
			start := time.Now()
			out, err := next.Generate(ctx, prompt, cfg)
			if err != nil {
				log.Warn("llm error", zap.String("phase", phase), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
				return out, err
			}
			log.Debug("llm response",
				zap.String("phase", phase),
				zap.Int("response_bytes", len(out)),
				zap.Duration("elapsed", time.Since(start)))
			return out, nil
		}}
	}
}

// WithHooks calls HookFrom(ctx).Before/After around Generate.
// If no hook is present in the context, it is a no-op.
func WithHooks() Middleware {
	return func(next LLMClient) LLMClient {
		return &generateFunc{next: next, fn: func(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
			hook := HookFrom(ctx)
			if hook != nil {
				hook.Before(ctx, PhaseFrom(ctx), prompt)
			}
			out, err := next.Generate(ctx, prompt, cfg)
			if hook != nil {
				hook.After(ctx, PhaseFrom(ctx), out, err)
			}
			return out, err
		}}
	}
}

// -------- Metrics & Tracing --------

// WithMetrics counts every call by phase and result and records latency.
func WithMetrics(m *observability.Metrics) Middleware {
	return func(next LLMClient) LLMClient {
		if m == nil {
			return next
		}
		return &generateFunc{next: next, fn: func(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
			phase := PhaseFrom(ctx)
			start := time.Now()
			out, err := next.Generate(ctx, prompt, cfg)
			m.LLMDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
			result := "ok"
			if err != nil {
				result = "error"
			}
			m.LLMCalls.WithLabelValues(phase, result).Inc()
			return out, err
		}}
	}
}

// WithTracing opens one span per call.
func WithTracing(tracer trace.Tracer) Middleware {
	return func(next LLMClient) LLMClient {
		if tracer == nil {
			return next
		}
		return &generateFunc{next: next, fn: func(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
			ctx, span := tracer.Start(ctx, "llm.generate", trace.WithAttributes(
				attribute.String("llm.phase", PhaseFrom(ctx)),
				attribute.String("llm.model", cfg.Model),
				attribute.Int("llm.prompt_bytes", len(prompt)),
			))
			defer span.End()
			out, err := next.Generate(ctx, prompt, cfg)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetAttributes(attribute.Int("llm.response_bytes", len(out)))
			}
			return out, err
		}}
	}
}
