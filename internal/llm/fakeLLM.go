package llm

import (
	"context"
	"fmt"
	"strings"
)

// FakeClient returns deterministic, well-formed responses per phase for
// offline runs and tests. It never calls the network.
type FakeClient struct{}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch PhaseFrom(ctx) {
	case "refine":
		return FakeRefinement, nil
	case "spec":
		return FakeSpec, nil
	case "generate":
		return FakeDocument, nil
	}
	return "", fmt.Errorf("fake llm: no canned response for phase %q", PhaseFrom(ctx))
}

// FakeRefinement is a four-option refinement response.
var FakeRefinement = func() string {
	var b strings.Builder
	b.WriteString("Here are four refined options.\n\n")
	options := []struct{ letter, title, audience, uvz, framework string }{
		{"A", "Core Reset in 30 Days", "postpartum moms 3-12 months after birth", "30-day diastasis recti rebuild without equipment", "The CORE Method"},
		{"B", "Nap-Time Strength", "stay-at-home moms with infants under 1", "10-minute strength sessions during nap windows", "The NAP Protocol"},
		{"C", "Back to Running After Baby", "runners returning to the sport postpartum", "pelvic floor first return-to-run plan", "The STRIDE Cycle"},
		{"D", "C-Section Core Recovery", "moms recovering from a cesarean birth", "scar-aware core rebuilding after C-section", "The HEAL Framework"},
	}
	for _, o := range options {
		fmt.Fprintf(&b, "REFINED OPTION %s:\n", o.letter)
		fmt.Fprintf(&b, "Title: %s\n", o.title)
		fmt.Fprintf(&b, "Audience: %s\n", o.audience)
		b.WriteString("Core Pain: generic workouts ignore abdominal separation\n")
		b.WriteString("Transformation: A Strong, Functional Core\n")
		b.WriteString("Angle: Rehab-First Progressions\n")
		fmt.Fprintf(&b, "Unique Value Zone: %s\n", o.uvz)
		fmt.Fprintf(&b, "Signature Framework Name: %s\n\n", o.framework)
	}
	b.WriteString("Select one option using: SELECT: A / B / C / D\n")
	return b.String()
}()

// FakeSpec is a complete product_spec response.
const FakeSpec = `product_spec.title: Core Reset in 30 Days
product_spec.audience: postpartum moms 3-12 months after birth
product_spec.core_problem: generic workouts ignore abdominal separation
product_spec.transformation: a strong, functional core in 30 days
product_spec.unique_value: 30-day diastasis recti rebuild without equipment
product_spec.angle: rehab-first progressions that fit around a baby's schedule
product_spec.use_cases: Morning routine before the baby wakes
Nap-time sessions at home
Stroller walks with core cues
Returning to the gym safely
product_spec.pain_points: Lingering abdominal separation
Back pain when lifting the baby
No time for long workouts
Conflicting advice online
product_spec.signature_framework_name: The CORE Method
product_spec.tone: Expert, direct, tactical
product_spec.product_type: Guide
`

// FakeDocument is a short generated guide with two sections.
const FakeDocument = `TITLE: Core Reset in 30 Days
SUMMARY: A tactical plan to rebuild core strength after pregnancy.
READING_TIME: 45-75 minutes
FORMAT: Guide

## Section 1: Core Problem (Diagnosis)
Most postpartum programs skip the deep core.

## Section 2: Step-by-Step Playbook
1. Breathe. 2. Brace. 3. Progress.
`
