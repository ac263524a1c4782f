package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"nexa/internal/llm"
	llmclient "nexa/internal/llmClient"
	"nexa/internal/textextract"
	t "nexa/internal/types"
)

const promptSpec = `You are a product specification engine. Convert the selected refined
concept into a complete, strictly formatted product_spec.

Output plain text only, with exactly these fields in this order:

product_spec.title: <one sentence title>
product_spec.audience: <audience>
product_spec.core_problem: <core pain / problem>
product_spec.transformation: <transformation>
product_spec.unique_value: <unique value zone>
product_spec.angle: <angle, 1-2 sentences>
product_spec.use_cases: <4-6 use cases, one per line, no semicolons>
product_spec.pain_points: <4-6 pain points, one per line, no semicolons>
product_spec.signature_framework_name: <exact framework name from the concept>
product_spec.tone: Expert, direct, tactical
product_spec.product_type: Guide

Rules:
- Use only the details in the selected concept; keep its terminology.
- Do not invent new angles, framework names, statistics, or experts.
- No steps, templates, or structures; those belong to the product itself.
- Every field is present and non-empty.
- No JSON, markdown, explanations, or commentary.`

const (
	specPrefix    = "product_spec."
	maxTitleLen   = 100
	maxAngleLen   = 200
	maxListItems  = 6
	minPainPoints = 3
	minUseCases   = 4
)

// specFields are the fields the model must return, in reporting order.
var specFields = []string{
	"title", "audience", "core_problem", "transformation",
	"unique_value", "angle", "use_cases", "pain_points",
	"signature_framework_name", "tone", "product_type",
}

// SpecBuilder turns one selected concept into a validated ProductSpec.
type SpecBuilder struct {
	LLM   llm.LLMClient
	Model string
	Log   *zap.Logger
}

// Run builds and validates the spec for the selected concept.
func (p *SpecBuilder) Run(ctx context.Context, in t.SpecIn) (t.SpecOut, error) {
	letter := in.SelectedOption
	concept, err := selectConcept(StageSpec, in)
	if err != nil {
		return t.SpecOut{}, err
	}

	prompt, err := specPrompt(letter, in.OriginalIdea, concept)
	if err != nil {
		return t.SpecOut{}, err
	}
	ctx = llm.WithPhase(ctx, string(StageSpec))
	text, err := p.LLM.Generate(ctx, prompt, llmclient.SpecConfig(p.Model))
	if err != nil {
		return t.SpecOut{}, upstreamError(StageSpec, err)
	}

	fields := textextract.ExtractLabeled(strings.TrimSpace(text), specPrefix)
	logger(p.Log).Debug("spec parsed", zap.Int("fields", len(fields)), zap.String("option", letter))
	spec, err := buildSpec(fields)
	if err != nil {
		return t.SpecOut{}, err
	}

	spec.SelectedOption = letter
	spec.OriginalIdea = in.OriginalIdea
	spec.ConceptID = concept.Id
	if spec.ConceptID == "" {
		spec.ConceptID = t.ConceptID(letter)
	}
	spec.Layers = t.DefaultLayers
	if concept.Layers != nil {
		spec.Layers = *concept.Layers
	}
	return t.SpecOut{
		ProductSpec:      spec,
		SelectedConcept:  concept,
		OptionLetter:     letter,
		ValidationStatus: "passed",
	}, nil
}

// selectConcept checks the selected letter and returns the concept at its
// position.
func selectConcept(stage Stage, in t.SpecIn) (t.Concept, error) {
	letter := in.SelectedOption
	if !t.ValidOptionLetter(letter) {
		return t.Concept{}, validationError(stage, CodeInvalidSelection,
			"Invalid option selection. Must choose A, B, C, or D.")
	}
	if in.Refinement == nil || in.Refinement.Concepts == nil {
		return t.Concept{}, validationError(stage, CodeConceptNotFound,
			"Refinement data required. Please complete idea refinement first.")
	}
	idx := t.OptionIndex(letter)
	if idx >= len(in.Refinement.Concepts) {
		return t.Concept{}, validationError(stage, CodeConceptNotFound,
			fmt.Sprintf("Option %s not found in refinement data.", letter))
	}
	return in.Refinement.Concepts[idx], nil
}

func specPrompt(letter, idea string, c t.Concept) (string, error) {
	js, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode concept: %w", err)
	}
	var b strings.Builder
	b.WriteString(promptSpec)
	b.WriteString("\n\nSELECT: ")
	b.WriteString(letter)
	b.WriteString("\n\nORIGINAL IDEA:\n")
	b.WriteString(idea)
	b.WriteString("\n\nREFINED OPTIONS CONCEPTS:\n")
	b.Write(js)
	return b.String(), nil
}

// buildSpec validates the extracted fields in a fixed order: presence,
// length caps, then list cardinality.
func buildSpec(fields map[string]string) (t.ProductSpec, error) {
	var missing []string
	for _, name := range specFields {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		e := specError("Missing required fields: " + strings.Join(missing, ", "))
		e.Missing = missing
		return t.ProductSpec{}, e
	}
	if utf8.RuneCountInString(fields["title"]) > maxTitleLen {
		return t.ProductSpec{}, specError("Title too long. Must be 1 sentence.")
	}
	if utf8.RuneCountInString(fields["angle"]) > maxAngleLen {
		return t.ProductSpec{}, specError("Angle too long. Must be 1-2 sentences.")
	}
	pain := textextract.SplitList(fields["pain_points"], maxListItems)
	if len(pain) < minPainPoints {
		return t.ProductSpec{}, specError(fmt.Sprintf("Must have 3-6 pain points. Only got %d. Raw: %s", len(pain), fields["pain_points"]))
	}
	uses := textextract.SplitList(fields["use_cases"], maxListItems)
	if len(uses) < minUseCases {
		return t.ProductSpec{}, specError(fmt.Sprintf("Must have 4-6 use cases. Only got %d. Raw: %s", len(uses), fields["use_cases"]))
	}
	return t.ProductSpec{
		Title:                  fields["title"],
		Audience:               fields["audience"],
		CoreProblem:            fields["core_problem"],
		Transformation:         fields["transformation"],
		UniqueValue:            fields["unique_value"],
		Angle:                  fields["angle"],
		UseCases:               uses,
		PainPoints:             pain,
		SignatureFrameworkName: fields["signature_framework_name"],
		Tone:                   fields["tone"],
		ProductType:            fields["product_type"],
	}, nil
}

func specError(detail string) *Error {
	return &Error{
		Stage:   StageSpec,
		Kind:    KindStructural,
		Code:    CodeSpecBuildError,
		Message: "Failed to build product specification: " + detail,
		Details: detail,
	}
}
