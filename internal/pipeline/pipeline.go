package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"nexa/internal/llm"
	"nexa/internal/observability"
	t "nexa/internal/types"
)

// Models picks the model per stage. Empty entries use the stage default.
type Models struct {
	Refine   string
	Spec     string
	Generate string
}

// Pipeline exposes the three stages with per-stage logging, metrics, and
// tracing. Stages share nothing but the client; each call is independent.
type Pipeline struct {
	Refiner   *Refiner
	Spec      *SpecBuilder
	Generator *Generator

	log     *zap.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithLogger(l *zap.Logger) Option { return func(p *Pipeline) { p.log = l } }

func WithMetrics(m *observability.Metrics) Option { return func(p *Pipeline) { p.metrics = m } }

func WithTracer(tr trace.Tracer) Option { return func(p *Pipeline) { p.tracer = tr } }

// New wires the stages to one client. The client should already carry
// its retry middleware.
func New(cli llm.LLMClient, models Models, opts ...Option) *Pipeline {
	p := &Pipeline{log: zap.NewNop()}
	for _, o := range opts {
		o(p)
	}
	p.Refiner = &Refiner{LLM: cli, Model: models.Refine, Log: p.log.Named("refine")}
	p.Spec = &SpecBuilder{LLM: cli, Model: models.Spec, Log: p.log.Named("spec")}
	p.Generator = &Generator{LLM: cli, Model: models.Generate, Log: p.log.Named("generate")}
	return p
}

func (p *Pipeline) Refine(ctx context.Context, in t.RefineIn) (t.RefineOut, error) {
	return observe(ctx, p, StageRefine, func(ctx context.Context) (t.RefineOut, error) {
		return p.Refiner.Run(ctx, in)
	})
}

func (p *Pipeline) BuildSpec(ctx context.Context, in t.SpecIn) (t.SpecOut, error) {
	return observe(ctx, p, StageSpec, func(ctx context.Context) (t.SpecOut, error) {
		return p.Spec.Run(ctx, in)
	})
}

func (p *Pipeline) Generate(ctx context.Context, in t.GenerateIn) (t.GenerateOut, error) {
	return observe(ctx, p, StageGenerate, func(ctx context.Context) (t.GenerateOut, error) {
		return p.Generator.Run(ctx, in)
	})
}

func observe[T any](ctx context.Context, p *Pipeline, stage Stage, run func(context.Context) (T, error)) (T, error) {
	if p.tracer != nil {
		var span trace.Span
		ctx, span = p.tracer.Start(ctx, "pipeline."+string(stage))
		defer span.End()
	}
	start := time.Now()
	out, err := run(ctx)
	elapsed := time.Since(start)

	code := "OK"
	if err != nil {
		code = "INTERNAL"
		if pe, ok := AsError(err); ok {
			code = string(pe.Code)
		}
	}
	if p.metrics != nil {
		p.metrics.StageRequests.WithLabelValues(string(stage), code).Inc()
		p.metrics.StageDuration.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
	}
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.String("pipeline.code", code))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, code)
		}
	}

	fields := []zap.Field{zap.String("stage", string(stage)), zap.String("code", code), zap.Duration("elapsed", elapsed)}
	switch pe, ok := AsError(err); {
	case err == nil:
		p.log.Info("stage completed", fields...)
	case ok && pe.Kind == KindValidation:
		p.log.Info("stage rejected input", append(fields, zap.String("message", pe.Message))...)
	default:
		p.log.Warn("stage failed", append(fields, zap.Error(err))...)
	}
	return out, err
}
