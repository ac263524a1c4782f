package handler

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Body schemas check JSON typing only. Presence and content rules belong
// to the stages so that their error codes reach the caller unchanged.
const (
	refineSchemaSrc = `{
  "type": "object",
  "properties": {
    "idea": {"type": ["string", "null"]}
  }
}`

	specSchemaSrc = `{
  "type": "object",
  "properties": {
    "selectedOption": {"type": ["string", "null"]},
    "originalIdea":   {"type": ["string", "null"]},
    "refinementData": {
      "type": ["object", "null"],
      "properties": {
        "Concepts": {"type": ["array", "null"], "items": {"type": "object"}}
      }
    }
  }
}`

	generateSchemaSrc = `{
  "type": "object",
  "properties": {
    "product_spec": {
      "type": ["object", "null"],
      "properties": {
        "title":          {"type": "string"},
        "audience":       {"type": "string"},
        "core_problem":   {"type": "string"},
        "transformation": {"type": "string"},
        "unique_value":   {"type": "string"},
        "angle":          {"type": "string"},
        "tone":           {"type": "string"},
        "product_type":   {"type": "string"},
        "use_cases":      {"type": ["array", "null"], "items": {"type": "string"}},
        "pain_points":    {"type": ["array", "null"], "items": {"type": "string"}},
        "signature_framework_name": {"type": "string"}
      }
    }
  }
}`
)

var (
	refineSchema   = mustSchema(refineSchemaSrc)
	specSchema     = mustSchema(specSchemaSrc)
	generateSchema = mustSchema(generateSchemaSrc)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile request schema: %v", err))
	}
	return s
}

// schemaError lists every violation of a request body.
type schemaError struct {
	problems []string
}

func (e *schemaError) Error() string {
	return "request body does not match schema: " + strings.Join(e.problems, "; ")
}

func validateBody(s *gojsonschema.Schema, raw []byte) error {
	res, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return err
	}
	if res.Valid() {
		return nil
	}
	problems := make([]string, len(res.Errors()))
	for i, desc := range res.Errors() {
		problems[i] = desc.String()
	}
	return &schemaError{problems: problems}
}
