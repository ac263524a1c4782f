package pipeline

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"nexa/internal/llm"
	llmclient "nexa/internal/llmClient"
	"nexa/internal/textextract"
	t "nexa/internal/types"
)

const promptRefine = `You are a product strategist. Turn the user's raw idea into four distinct,
highly specific digital product concepts using the 3-layer method:

Layer 1: Industry (broad market category)
Layer 2: Niche (a specific sub-audience)
Layer 3: Unique Value Zone (the ultra-specific micro-problem, angle, or
transformation competitors ignore)

Output plain text only, structured exactly like this:

REFINED OPTION A:
Title:
Audience:
Core Pain:
Transformation:
Angle:
Unique Value Zone:
Signature Framework Name:

REFINED OPTION B:
(same fields)

REFINED OPTION C:
(same fields)

REFINED OPTION D:
(same fields)

Field guidance:
- Title: a commercially compelling title based on the Unique Value Zone.
- Audience: a narrow sub-group, e.g. "postpartum moms 3-12 months after birth".
- Core Pain: one specific problem generic solutions ignore.
- Transformation: the concrete end result the audience wants.
- Angle: the perspective that sets this product apart.
- Unique Value Zone: a micro-problem or micro-goal, never "learn fitness"
  or "grow your business".
- Signature Framework Name: a short, brandable name such as
  "The MOMENTUM Method".

Rules:
- Always produce exactly 4 options (A, B, C, D).
- Each option targets a different audience, problem, and angle.
- Every field is filled, on one line, with no extra fields.
- No JSON, code blocks, disclaimers, or commentary.

USER IDEA: `

// MinIdeaLength is the minimum trimmed idea length, in characters.
const MinIdeaLength = 10

// Fixed attributes of every refined concept.
const (
	DefaultTone        = "Expert, direct, tactical"
	DefaultProductType = "Guide"
	DefaultIndustry    = "Industry"
	optionMarker       = "REFINED OPTION"
)

var conceptSchema = textextract.Schema{Fields: []textextract.Field{
	{Name: "title", Label: "Title", Default: textextract.NotFound},
	{Name: "audience", Label: "Audience", Default: textextract.NotFound},
	{Name: "core_pain", Label: "Core Pain", Default: textextract.NotFound},
	{Name: "transformation", Label: "Transformation", Default: textextract.NotFound},
	{Name: "angle", Label: "Angle", Default: textextract.NotFound},
	{Name: "uvz", Label: "Unique Value Zone", Default: textextract.NotFound},
	{Name: "framework", Label: "Signature Framework Name", Default: textextract.NotFound},
}}

// Refiner turns a raw idea into exactly four lettered concepts.
type Refiner struct {
	LLM   llm.LLMClient
	Model string
	Log   *zap.Logger
}

// Run validates the idea, asks the model for four options and parses them.
func (p *Refiner) Run(ctx context.Context, in t.RefineIn) (t.RefineOut, error) {
	idea := strings.TrimSpace(in.Idea)
	if utf8.RuneCountInString(idea) < MinIdeaLength {
		return t.RefineOut{}, validationError(StageRefine, CodeInvalidInput,
			fmt.Sprintf("Please provide a detailed idea (at least %d characters)", MinIdeaLength))
	}

	ctx = llm.WithPhase(ctx, string(StageRefine))
	text, err := p.LLM.Generate(ctx, promptRefine+idea, llmclient.RefineConfig(p.Model))
	if err != nil {
		return t.RefineOut{}, upstreamError(StageRefine, err)
	}

	blocks := textextract.SplitBlocks(text, optionMarker)
	logger(p.Log).Debug("refinement parsed", zap.Int("blocks", len(blocks)), zap.Int("response_bytes", len(text)))
	if len(blocks) == 0 {
		return t.RefineOut{}, &Error{
			Stage:   StageRefine,
			Kind:    KindParse,
			Code:    CodeParseFailure,
			Message: "Failed to parse AI response. Please try again.",
			Details: preview(text),
		}
	}
	if len(blocks) != t.ConceptCount {
		return t.RefineOut{}, &Error{
			Stage:   StageRefine,
			Kind:    KindStructural,
			Code:    CodeCardinalityFailure,
			Message: fmt.Sprintf("System requires exactly %d refined concepts. Generated %d. Please try again.", t.ConceptCount, len(blocks)),
			Retry:   true,
		}
	}

	concepts := make([]t.Concept, 0, len(blocks))
	for i, b := range blocks {
		concepts = append(concepts, conceptFromFields(t.OptionLetterAt(i), conceptSchema.WithDefaults(conceptSchema.Extract(b.Body))))
	}
	return t.RefineOut{RefinementData: t.RefinementData{Concepts: concepts}}, nil
}

// conceptFromFields assembles a concept. Letters are positional; whatever
// letter the model printed is ignored.
func conceptFromFields(letter string, f map[string]string) t.Concept {
	audience, uvz := f["audience"], f["uvz"]
	return t.Concept{
		OptionLetter:   letter,
		Id:             t.ConceptID(letter),
		Title:          f["title"],
		TargetAudience: audience,
		CoreGoal:       f["core_pain"],
		Tone:           DefaultTone,
		ProductAngle:   f["angle"],
		ProductType:    DefaultProductType,
		KeyPainPoints:  painPoints(f["core_pain"], f["transformation"], f["angle"], audience),
		UniqueValue:    uvz,
		TargetOutcome:  f["transformation"],
		Layers: &t.Layers{
			Layer1: DefaultIndustry,
			Layer2: audience,
			Layer3: uvz,
		},
		SignatureFrameworkName: f["framework"],
	}
}

// painPoints derives the four pain points of a concept from its fields.
func painPoints(corePain, transformation, angle, audience string) []string {
	return []string{
		corePain,
		"Lack of clear strategy for " + strings.ToLower(transformation),
		"Difficulty implementing " + strings.ToLower(angle),
		"Overwhelmed by generic advice that doesn't work for " + strings.ToLower(audience),
	}
}

func preview(s string) string {
	const max = 500
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func logger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
