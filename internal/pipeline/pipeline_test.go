package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"nexa/internal/llm"
	llmclient "nexa/internal/llmClient"
	"nexa/internal/observability"
	"nexa/internal/types"
)

func TestPipeline_EndToEndWithFakeModel(t *testing.T) {
	m := observability.NewMetrics()
	core, logs := observer.New(zapcore.InfoLevel)
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer tp.Shutdown(context.Background())

	p := New(llm.NewFakeClient(), Models{},
		WithLogger(zap.New(core)), WithMetrics(m), WithTracer(tp.Tracer("test")))
	ctx := context.Background()

	ref, err := p.Refine(ctx, types.RefineIn{Idea: momsIdea})
	require.NoError(t, err)
	require.Len(t, ref.Concepts, types.ConceptCount)

	spec, err := p.BuildSpec(ctx, types.SpecIn{SelectedOption: "C", OriginalIdea: momsIdea, Refinement: &ref.RefinementData})
	require.NoError(t, err)
	assert.Equal(t, "option_c", spec.ProductSpec.ConceptID)
	assert.Equal(t, "pelvic floor first return-to-run plan", spec.ProductSpec.Layers.Layer3)

	doc, err := p.Generate(ctx, types.GenerateIn{Spec: &spec.ProductSpec})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Sections)

	for _, stage := range []string{"refine", "spec", "generate"} {
		assert.Equal(t, 1.0, testutil.ToFloat64(m.StageRequests.WithLabelValues(stage, "OK")), stage)
	}
	assert.Equal(t, 3, logs.FilterMessage("stage completed").Len())

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"pipeline.refine", "pipeline.spec", "pipeline.generate"}, names)
}

func TestPipeline_RecordsFailureCodes(t *testing.T) {
	m := observability.NewMetrics()
	core, logs := observer.New(zapcore.InfoLevel)
	cli := llmclient.NewScriptedClient(llmclient.Reply{Text: "no options here"})
	p := New(cli, Models{}, WithLogger(zap.New(core)), WithMetrics(m))

	_, err := p.Refine(context.Background(), types.RefineIn{Idea: "short"})
	requireStageError(t, err, CodeInvalidInput)
	_, err = p.Refine(context.Background(), types.RefineIn{Idea: momsIdea})
	requireStageError(t, err, CodeParseFailure)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageRequests.WithLabelValues("refine", "INVALID_INPUT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageRequests.WithLabelValues("refine", "PARSE_FAILURE")))
	assert.Equal(t, 1, logs.FilterMessage("stage rejected input").Len())
	assert.Equal(t, 1, logs.FilterMessage("stage failed").Len())
}

func TestPipeline_ModelOverrides(t *testing.T) {
	cli := llmclient.NewScriptedClient(llmclient.Reply{Text: optionsText("A", "B", "C", "D")})
	p := New(cli, Models{Refine: "custom-model"})
	_, err := p.Refine(context.Background(), types.RefineIn{Idea: momsIdea})
	require.NoError(t, err)
	assert.Equal(t, "custom-model", cli.Calls()[0].Config.Model)
}

func TestPipeline_RetriesTransientFailures(t *testing.T) {
	cli := llmclient.NewScriptedClient(
		llmclient.Reply{Err: errors.New("429 resource exhausted")},
		llmclient.Reply{Err: errors.New("503 unavailable")},
		llmclient.Reply{Text: optionsText("A", "B", "C", "D")},
	)
	var waits []time.Duration
	policy := llm.DefaultRetryPolicy()
	policy.Sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	m := observability.NewMetrics()
	p := New(llm.Wrap(cli, llm.Retry(policy, nil, m)), Models{})

	out, err := p.Refine(context.Background(), types.RefineIn{Idea: momsIdea})
	require.NoError(t, err)
	assert.Len(t, out.Concepts, 4)
	assert.Len(t, cli.Calls(), 3)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, waits)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LLMRetries.WithLabelValues("refine")))
}

func TestPipeline_ExhaustedRetriesSurfaceUpstreamFailure(t *testing.T) {
	cli := llmclient.NewScriptedClient(
		llmclient.Reply{Err: errors.New("boom 1")},
		llmclient.Reply{Err: errors.New("boom 2")},
		llmclient.Reply{Err: errors.New("boom 3")},
		llmclient.Reply{Text: "never reached"},
	)
	policy := llm.DefaultRetryPolicy()
	policy.Sleep = func(context.Context, time.Duration) error { return nil }
	p := New(llm.Wrap(cli, llm.Retry(policy, nil, nil)), Models{})

	_, err := p.Generate(context.Background(), types.GenerateIn{Spec: validSpec()})
	pe := requireStageError(t, err, CodeUpstreamFailure)
	assert.EqualError(t, pe.Err, "boom 3")
	assert.Len(t, cli.Calls(), 3)
}

func TestPipeline_PermanentErrorNotRetried(t *testing.T) {
	cli := llmclient.NewScriptedClient(
		llmclient.Reply{Err: llmclient.NewPermanentError(llmclient.ErrConfiguration)},
		llmclient.Reply{Text: "never reached"},
	)
	policy := llm.DefaultRetryPolicy()
	policy.Sleep = func(context.Context, time.Duration) error {
		t.Fatal("permanent errors must not back off")
		return nil
	}
	p := New(llm.Wrap(cli, llm.Retry(policy, nil, nil)), Models{})

	_, err := p.BuildSpec(context.Background(), types.SpecIn{SelectedOption: "A", Refinement: testRefinement(4)})
	requireStageError(t, err, CodeConfigurationError)
	assert.Len(t, cli.Calls(), 1)
}
