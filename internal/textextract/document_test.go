package textextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const markdownDoc = `TITLE: Core Reset Protocol
SUMMARY: A tactical guide
for postpartum moms.

READING_TIME: 45–75 minutes
FORMAT: Guide

## Section 1: Core Problem
Diastasis recti is common.

### Checklist
- item

## Section 2: Who This Is For
Moms 3-12 months after birth.
## Empty
`

func TestExtractHeader(t *testing.T) {
	h := ExtractHeader(markdownDoc)
	assert.Equal(t, "Core Reset Protocol", h.Title)
	assert.Equal(t, "A tactical guide for postpartum moms.", h.Summary)
	assert.Equal(t, "45–75 minutes", h.ReadingTime)
	assert.Equal(t, "Guide", h.Format)
	assert.Equal(t, 6, h.BodyStart)
}

func TestExtractHeader_SummaryStopsAtLabel(t *testing.T) {
	h := ExtractHeader("SUMMARY:\nline one\nREADING_TIME: 1 hour\n")
	assert.Equal(t, "line one", h.Summary)
	assert.Equal(t, "1 hour", h.ReadingTime)
	assert.Empty(t, h.Title)
	assert.Empty(t, h.Format)
}

func TestExtractHeader_Absent(t *testing.T) {
	h := ExtractHeader("just prose\nmore prose")
	assert.Equal(t, Header{}, h)
}

func TestSplitSections(t *testing.T) {
	got := SplitSections(markdownDoc)
	require.Len(t, got, 3)
	assert.Equal(t, "Section 1: Core Problem", got[0].Heading)
	assert.Equal(t, "Diastasis recti is common.\n\n### Checklist\n- item", got[0].Body)
	assert.Equal(t, "Section 2: Who This Is For", got[1].Heading)
	assert.Equal(t, "Moms 3-12 months after birth.", got[1].Body)
	assert.Equal(t, "Empty", got[2].Heading)
	assert.Empty(t, got[2].Body)
}

func TestFallbackSections_SectionLines(t *testing.T) {
	text := `TITLE: Plain
SUMMARY: No markdown here.
READING_TIME: 1 hour
FORMAT: Guide

Section 1: Core Problem (Diagnosis)
The real problem is consistency.

Section 2: Who This Is For
Busy parents.
Section 3: Nothing below`
	h := ExtractHeader(text)
	require.Empty(t, SplitSections(text))
	got := FallbackSections(text, h)
	require.Len(t, got, 2)
	assert.Equal(t, "Section 1: Core Problem (Diagnosis)", got[0].Heading)
	assert.Equal(t, "The real problem is consistency.", got[0].Body)
	assert.Equal(t, "Section 2: Who This Is For", got[1].Heading)
}

func TestFallbackSections_BareMarkers(t *testing.T) {
	text := "TITLE: X\n##Intro\nbody one\n##Next\nbody two"
	got := FallbackSections(text, ExtractHeader(text))
	require.Len(t, got, 2)
	assert.Equal(t, Section{Heading: "Intro", Body: "body one"}, got[0])
	assert.Equal(t, Section{Heading: "Next", Body: "body two"}, got[1])
}

func TestFallbackSections_ParagraphsOnly(t *testing.T) {
	text := "TITLE: X\nSUMMARY: y\n\nGetting started\nFirst you breathe.\n\nThen you move."
	got := FallbackSections(text, ExtractHeader(text))
	require.Len(t, got, 1)
	assert.Equal(t, "Getting started", got[0].Heading)
	assert.Equal(t, "First you breathe.\n\nThen you move.", got[0].Body)
}

func TestFallbackSections_NothingUsable(t *testing.T) {
	assert.Empty(t, FallbackSections("TITLE: only a title", ExtractHeader("TITLE: only a title")))
	assert.Empty(t, FallbackSections("", Header{}))
}
