package pipeline

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexa/internal/llm"
	llmclient "nexa/internal/llmClient"
	"nexa/internal/types"
)

func validSpec() *types.ProductSpec {
	return &types.ProductSpec{
		Title:                  "Core Reset in 30 Days",
		Audience:               "postpartum moms",
		CoreProblem:            "abdominal separation",
		Transformation:         "a functional core",
		UniqueValue:            "no-equipment rebuild",
		Angle:                  "rehab first",
		UseCases:               []string{"a", "b", "c", "d"},
		PainPoints:             []string{"x", "y", "z"},
		SignatureFrameworkName: "The CORE Method",
		Tone:                   DefaultTone,
		ProductType:            DefaultProductType,
		SelectedOption:         "A",
		ConceptID:              "option_a",
		Layers:                 types.DefaultLayers,
	}
}

func runGenerate(t *testing.T, text string, spec *types.ProductSpec) (types.GenerateOut, *llmclient.ScriptedClient, error) {
	t.Helper()
	cli := llmclient.NewScriptedClient(llmclient.Reply{Text: text})
	out, err := (&Generator{LLM: cli}).Run(context.Background(), types.GenerateIn{Spec: spec})
	return out, cli, err
}

func TestGenerator_ParsesHeaderAndSections(t *testing.T) {
	out, cli, err := runGenerate(t, llm.FakeDocument, validSpec())
	require.NoError(t, err)

	assert.Equal(t, "Core Reset in 30 Days", out.Title)
	assert.Equal(t, "A tactical plan to rebuild core strength after pregnancy.", out.Summary)
	assert.Equal(t, "45-75 minutes", out.EstimatedReadingTime)
	assert.Equal(t, "Guide", out.FormatIntent)
	require.Len(t, out.Sections, 2)
	assert.Equal(t, types.Section{
		Heading: "Section 1: Core Problem (Diagnosis)",
		Content: "Most postpartum programs skip the deep core.",
	}, out.Sections[0])

	calls := cli.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, `"title": "Core Reset in 30 Days"`)
	assert.NotContains(t, calls[0].Prompt, specPlaceholder)
	assert.Equal(t, llmclient.GenerateConfig(""), calls[0].Config)
	assert.Greater(t, calls[0].Config.MaxOutputTokens, llmclient.SpecConfig("").MaxOutputTokens)
}

func TestGenerator_FallbackSplitWithoutHeadings(t *testing.T) {
	text := "TITLE: Guide\nSUMMARY: Short summary.\n\nSection 1: Diagnosis\nBody one.\n\nSection 2: Plan\nBody two.\n"
	out, _, err := runGenerate(t, text, validSpec())
	require.NoError(t, err)
	assert.Equal(t, []types.Section{
		{Heading: "Section 1: Diagnosis", Content: "Body one."},
		{Heading: "Section 2: Plan", Content: "Body two."},
	}, out.Sections)

	// plain paragraphs still yield a section
	text = "TITLE: Guide\nSUMMARY: Short summary.\n\nGetting started\nYou need a plan.\n\nKeep going.\n"
	out, _, err = runGenerate(t, text, validSpec())
	require.NoError(t, err)
	require.Len(t, out.Sections, 1)
	assert.Equal(t, "Getting started", out.Sections[0].Heading)
	assert.Equal(t, "You need a plan.\n\nKeep going.", out.Sections[0].Content)
}

func TestGenerator_HeaderDefaultsAndPlaceholders(t *testing.T) {
	out, _, err := runGenerate(t, "## First\n## Second\ntext\n", validSpec())
	require.NoError(t, err)
	assert.Equal(t, DefaultTitle, out.Title)
	assert.Equal(t, DefaultSummary, out.Summary)
	assert.Equal(t, DefaultReadingTime, out.EstimatedReadingTime)
	assert.Equal(t, DefaultFormat, out.FormatIntent)
	assert.Equal(t, []types.Section{
		{Heading: "First", Content: DefaultSectionContent},
		{Heading: "Second", Content: "text"},
	}, out.Sections)
	assert.Equal(t, "Section 3", DefaultSectionHeading(2))
}

func TestGenerator_NoSections(t *testing.T) {
	_, _, err := runGenerate(t, "TITLE: Only a header\nSUMMARY: nothing else", validSpec())
	pe := requireStageError(t, err, CodeNoSections)
	assert.Equal(t, http.StatusInternalServerError, pe.Status())
	assert.Equal(t, KindStructural, pe.Kind)
}

func TestGenerator_RejectsIncompleteSpecBeforeModelCall(t *testing.T) {
	_, cli, err := runGenerate(t, llm.FakeDocument, nil)
	pe := requireStageError(t, err, CodeMissingProductSpec)
	assert.Equal(t, http.StatusBadRequest, pe.Status())
	assert.Empty(t, cli.Calls())

	spec := validSpec()
	spec.Transformation = "  "
	_, cli, err = runGenerate(t, llm.FakeDocument, spec)
	pe = requireStageError(t, err, CodeInvalidProductSpec)
	assert.Equal(t, []string{"transformation"}, pe.Missing)
	assert.Equal(t, "Invalid product specification. Missing: transformation", pe.Message)
	assert.Empty(t, cli.Calls())

	_, _, err = runGenerate(t, llm.FakeDocument, &types.ProductSpec{CoreProblem: "only this"})
	pe = requireStageError(t, err, CodeInvalidProductSpec)
	assert.Equal(t, []string{
		"title", "audience", "pain_points", "unique_value",
		"angle", "tone", "product_type", "transformation",
	}, pe.Missing)
}

func TestGenerator_UpstreamFailure(t *testing.T) {
	cli := llmclient.NewScriptedClient(llmclient.Reply{Err: llmclient.NewPermanentError(llmclient.ErrEmptyResponse)})
	_, err := (&Generator{LLM: cli}).Run(context.Background(), types.GenerateIn{Spec: validSpec()})
	pe := requireStageError(t, err, CodeUpstreamFailure)
	assert.Equal(t, "Failed to generate product. Please try again.", pe.Message)
	assert.ErrorIs(t, err, llmclient.ErrEmptyResponse)
}
