package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"nexa/internal/types"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		outputFormat, useFake, showPrompts = "json", false, false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRunCommandYAML(t *testing.T) {
	out, err := execute(t, "--fake", "-o", "yaml", "run", "A fitness guide for new moms after pregnancy", "--option", "b")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	doc := got["document"].(map[string]any)
	assert.Equal(t, "Core Reset in 30 Days", doc["Title"])
	spec := got["spec"].(map[string]any)
	assert.Equal(t, "B", spec["option_letter"])
}

func TestRefineCommandRejectsShortIdea(t *testing.T) {
	_, err := execute(t, "--fake", "refine", "tiny")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_INPUT")
}

func TestChooseCommand(t *testing.T) {
	ref := types.RefinementData{Concepts: []types.Concept{
		{Title: "Core Reset", KeyPainPoints: []string{"diastasis"}, ProductType: "Guide"},
	}}
	raw, err := json.Marshal(ref)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "refinement.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	out, err := execute(t, "--fake", "choose", "--option", "A", "--refinement", path, "--idea", "new moms")
	require.NoError(t, err)

	var got types.SpecOut
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "selected", got.ValidationStatus)
	assert.Equal(t, "The Guide Method", got.ProductSpec.SignatureFrameworkName)
	assert.Equal(t, "new moms", got.ProductSpec.OriginalIdea)
}

func TestGenerateCommandAcceptsBareSpec(t *testing.T) {
	spec := types.ProductSpec{
		Title: "Core Reset", Audience: "new moms", PainPoints: []string{"time"},
		UniqueValue: "u", Angle: "a", Tone: "t", ProductType: "Guide", Transformation: "x",
	}
	raw, err := json.Marshal(spec)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "spec.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	out, err := execute(t, "--fake", "generate", "--spec", path)
	require.NoError(t, err)
	var doc types.ProductDocument
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Len(t, doc.Sections, 2)
}

func TestBadOutputFormat(t *testing.T) {
	_, err := execute(t, "-o", "xml", "refine", "whatever idea here")
	assert.ErrorContains(t, err, "--output must be json or yaml")
}
