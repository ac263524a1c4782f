package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"nexa/internal/llm"
	llmclient "nexa/internal/llmClient"
	"nexa/internal/textextract"
	t "nexa/internal/types"
)

const promptGenerate = `You are a product builder. Transform the validated product_spec below into
a 7-section, structured, low-ticket digital guide. Plain text only: no JSON,
no code blocks.

Start the output exactly like this:

TITLE: <product_spec.title>
SUMMARY: <one paragraph on the transformation and outcomes>
READING_TIME: 45-75 minutes
FORMAT: Guide

Then write the 7 sections below, in this order, each introduced by a
"## " heading line and each 900-1,100 words.

## Section 1: Core Problem (Diagnosis)
Root causes, common misconceptions, 3-5 specific examples, and a short
diagnostic checklist.

## Section 2: Who This Is For (Audience + Use Cases)
The exact audience from product_spec.audience, 4-6 real use cases,
prerequisites, and "perfect fit" vs "not ideal" scenarios.

## Section 3: Transformation (Before -> After)
A text before/after table, a 30-day projection, emotional and practical
wins, and KPIs to track progress.

## Section 4: Signature Framework
Use product_spec.signature_framework_name. 3-5 pillars, each with a
definition, why it matters, two micro-actions, and one short example.
End with a 3-step execution checklist.

## Section 5: Step-by-Step Playbook
6-10 numbered steps with actions, tools, scripts, or templates; 1-2
fill-in templates; a text decision tree.

## Section 6: Mistakes & Fixes
6-8 mistakes, each with why it happens, the fix, and a prevention checklist.

## Section 7: 30/60/90 Day Action Plan
Daily tasks for the first 30 days, weekly milestones for days 60 and 90,
a KPI tracking system, and "if stuck, do this" fallbacks.

Global rules:
- Tone: expert, tactical, direct. No storytelling, hype, or filler.
- Use the product_spec fields exactly.
- Use bullet lists, numbered lists, and subheadings.
- Write [CITATION REQUIRED] for research claims and mark speculation
  as [SPECULATIVE]. Never invent real names, dates, or studies.
- Focus 70% on actions and 30% on explanations.

INPUT
{product_spec_json}
`

const specPlaceholder = "{product_spec_json}"

// Header values used when the model leaves them out.
const (
	DefaultTitle          = "Untitled Product"
	DefaultSummary        = "A comprehensive digital product."
	DefaultReadingTime    = "45-60 minutes"
	DefaultFormat         = "Guide"
	DefaultSectionContent = "Content pending."
)

// DefaultSectionHeading is the placeholder heading of the n-th section,
// counted from zero.
func DefaultSectionHeading(n int) string {
	return fmt.Sprintf("Section %d", n+1)
}

// Generator expands a validated spec into the final document.
type Generator struct {
	LLM   llm.LLMClient
	Model string
	Log   *zap.Logger
}

// Run generates the document for a validated spec.
func (p *Generator) Run(ctx context.Context, in t.GenerateIn) (t.GenerateOut, error) {
	if in.Spec == nil {
		return t.GenerateOut{}, validationError(StageGenerate, CodeMissingProductSpec,
			"Product specification required. Please complete concept selection first.")
	}
	if missing := missingSpecFields(in.Spec); len(missing) > 0 {
		e := validationError(StageGenerate, CodeInvalidProductSpec,
			"Invalid product specification. Missing: "+strings.Join(missing, ", "))
		e.Missing = missing
		return t.GenerateOut{}, e
	}

	js, err := json.MarshalIndent(in.Spec, "", "  ")
	if err != nil {
		return t.GenerateOut{}, fmt.Errorf("encode product spec: %w", err)
	}
	prompt := strings.Replace(promptGenerate, specPlaceholder, string(js), 1)

	ctx = llm.WithPhase(ctx, string(StageGenerate))
	text, err := p.LLM.Generate(ctx, prompt, llmclient.GenerateConfig(p.Model))
	if err != nil {
		return t.GenerateOut{}, upstreamError(StageGenerate, err)
	}

	doc := parseDocument(strings.TrimSpace(text))
	logger(p.Log).Debug("document parsed", zap.Int("sections", len(doc.Sections)), zap.Int("response_bytes", len(text)))

	var absent []string
	if doc.Title == "" {
		absent = append(absent, "Title")
	}
	if doc.Summary == "" {
		absent = append(absent, "Summary")
	}
	if doc.EstimatedReadingTime == "" {
		absent = append(absent, "EstimatedReadingTime")
	}
	if len(absent) > 0 {
		return t.GenerateOut{}, &Error{
			Stage:   StageGenerate,
			Kind:    KindStructural,
			Code:    CodeInvalidStructure,
			Message: "Invalid product structure generated. Missing: " + strings.Join(absent, ", "),
			Missing: absent,
		}
	}
	if len(doc.Sections) == 0 {
		return t.GenerateOut{}, &Error{
			Stage:   StageGenerate,
			Kind:    KindStructural,
			Code:    CodeNoSections,
			Message: "No content sections generated. Please try again.",
			Details: preview(text),
		}
	}
	return t.GenerateOut{ProductDocument: doc}, nil
}

// missingSpecFields lists the fields generation cannot work without.
func missingSpecFields(s *t.ProductSpec) []string {
	checks := []struct {
		name string
		ok   bool
	}{
		{"title", strings.TrimSpace(s.Title) != ""},
		{"audience", strings.TrimSpace(s.Audience) != ""},
		{"pain_points", len(s.PainPoints) > 0},
		{"unique_value", strings.TrimSpace(s.UniqueValue) != ""},
		{"angle", strings.TrimSpace(s.Angle) != ""},
		{"tone", strings.TrimSpace(s.Tone) != ""},
		{"product_type", strings.TrimSpace(s.ProductType) != ""},
		{"transformation", strings.TrimSpace(s.Transformation) != ""},
	}
	var missing []string
	for _, c := range checks {
		if !c.ok {
			missing = append(missing, c.name)
		}
	}
	return missing
}

// parseDocument reads the header, splits sections (falling back to the
// secondary split), and fills placeholders for blank headings or bodies.
func parseDocument(text string) t.ProductDocument {
	h := textextract.ExtractHeader(text)
	sections := textextract.SplitSections(text)
	if len(sections) == 0 {
		sections = textextract.FallbackSections(text, h)
	}

	doc := t.ProductDocument{
		Title:                orDefault(h.Title, DefaultTitle),
		Summary:              orDefault(h.Summary, DefaultSummary),
		EstimatedReadingTime: orDefault(h.ReadingTime, DefaultReadingTime),
		FormatIntent:         orDefault(h.Format, DefaultFormat),
		Sections:             make([]t.Section, 0, len(sections)),
	}
	for i, s := range sections {
		doc.Sections = append(doc.Sections, t.Section{
			Heading: orDefault(s.Heading, DefaultSectionHeading(i)),
			Content: orDefault(s.Body, DefaultSectionContent),
		})
	}
	return doc
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
