package llmclient

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestPermanentError_Unwraps(t *testing.T) {
	err := fmt.Errorf("call: %w", NewPermanentError(ErrConfiguration))
	if !IsPermanent(err) {
		t.Fatalf("expected permanent error")
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration in chain")
	}
	if IsPermanent(errors.New("boom")) {
		t.Fatalf("plain error must not be permanent")
	}
}

func TestNewGeminiClient_MissingKeyIsPermanent(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), "  ")
	if err == nil || !IsPermanent(err) || !errors.Is(err, ErrConfiguration) {
		t.Fatalf("got %v", err)
	}
}

func TestStageConfigs(t *testing.T) {
	if got := RefineConfig(""); got.Model != DefaultRefineModel || got.Temperature != 0 {
		t.Fatalf("refine config: %+v", got)
	}
	spec := SpecConfig("")
	if spec.Temperature != 0.3 || spec.TopP != 0.8 || spec.TopK != 40 || spec.CandidateCount != 1 {
		t.Fatalf("spec config: %+v", spec)
	}
	gen := GenerateConfig("custom")
	if gen.Model != "custom" || gen.MaxOutputTokens != 65535 || gen.Temperature != 0.7 {
		t.Fatalf("generate config: %+v", gen)
	}
	if cfg := toGenai(RefineConfig("")); cfg.Temperature != nil || cfg.TopK != nil {
		t.Fatalf("zero sampling values must stay unset")
	}
	if cfg := toGenai(spec); cfg.TopK == nil || *cfg.TopK != 40 {
		t.Fatalf("topK not forwarded")
	}
}

func TestScriptedClient(t *testing.T) {
	boom := errors.New("boom")
	c := NewScriptedClient(Reply{Err: boom}, Reply{Text: "ok"})
	ctx := context.Background()
	if _, err := c.Generate(ctx, "p1", SpecConfig("")); !errors.Is(err, boom) {
		t.Fatalf("first reply: %v", err)
	}
	if got, err := c.Generate(ctx, "p2", RefineConfig("")); err != nil || got != "ok" {
		t.Fatalf("second reply: %q %v", got, err)
	}
	if _, err := c.Generate(ctx, "p3", RefineConfig("")); !errors.Is(err, ErrScriptExhausted) {
		t.Fatalf("exhausted: %v", err)
	}
	calls := c.Calls()
	if len(calls) != 3 || calls[0].Prompt != "p1" || calls[0].Config.Temperature != 0.3 {
		t.Fatalf("calls: %+v", calls)
	}
}

func TestUnavailableClient(t *testing.T) {
	cause := NewPermanentError(ErrConfiguration)
	c := &UnavailableClient{Err: cause}
	if _, err := c.Generate(context.Background(), "p", RefineConfig("")); !errors.Is(err, ErrConfiguration) || !IsPermanent(err) {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Generate(ctx, "p", RefineConfig("")); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled: %v", err)
	}
}
