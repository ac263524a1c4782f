package llmclient

// GenerationConfig carries the sampling parameters of one call. Zero values
// mean "use the model default".
type GenerationConfig struct {
	Model           string  `json:"model" yaml:"model"`
	Temperature     float32 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	TopP            float32 `json:"top_p,omitempty" yaml:"top_p,omitempty"`
	TopK            float32 `json:"top_k,omitempty" yaml:"top_k,omitempty"`
	MaxOutputTokens int32   `json:"max_output_tokens,omitempty" yaml:"max_output_tokens,omitempty"`
	CandidateCount  int32   `json:"candidate_count,omitempty" yaml:"candidate_count,omitempty"`
}

const (
	DefaultRefineModel   = "gemini-2.0-flash"
	DefaultSpecModel     = "gemini-2.0-flash"
	DefaultGenerateModel = "gemini-2.5-flash"
)

// RefineConfig is used for concept refinement: model defaults only.
func RefineConfig(model string) GenerationConfig {
	return GenerationConfig{Model: orDefault(model, DefaultRefineModel)}
}

// SpecConfig keeps spec construction close to the selected concept.
func SpecConfig(model string) GenerationConfig {
	return GenerationConfig{
		Model:          orDefault(model, DefaultSpecModel),
		Temperature:    0.3,
		TopP:           0.8,
		TopK:           40,
		CandidateCount: 1,
	}
}

// GenerateConfig allows the long-form output of the generation stage.
func GenerateConfig(model string) GenerationConfig {
	return GenerationConfig{
		Model:           orDefault(model, DefaultGenerateModel),
		Temperature:     0.7,
		TopP:            0.95,
		TopK:            40,
		MaxOutputTokens: 65535,
		CandidateCount:  1,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
