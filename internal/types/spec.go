package types

// ProductSpec bridges concept selection and full generation. Once the spec
// stage validates it, it is handed to the generator unchanged.
type ProductSpec struct {
	Title                  string   `json:"title"`
	Audience               string   `json:"audience"`
	CoreProblem            string   `json:"core_problem"`
	Transformation         string   `json:"transformation"`
	UniqueValue            string   `json:"unique_value"`
	Angle                  string   `json:"angle"`
	UseCases               []string `json:"use_cases"`
	PainPoints             []string `json:"pain_points"`
	SignatureFrameworkName string   `json:"signature_framework_name"`
	Tone                   string   `json:"tone"`
	ProductType            string   `json:"product_type"`
	SelectedOption         string   `json:"selected_option"`
	OriginalIdea           string   `json:"original_idea"`
	ConceptID              string   `json:"concept_id"`
	Layers                 Layers   `json:"layers"`
}

type SpecIn struct {
	SelectedOption string          `json:"selectedOption"`
	OriginalIdea   string          `json:"originalIdea"`
	Refinement     *RefinementData `json:"refinementData"`
}

type SpecOut struct {
	ProductSpec      ProductSpec `json:"product_spec"`
	SelectedConcept  Concept     `json:"selected_concept"`
	OptionLetter     string      `json:"option_letter"`
	ValidationStatus string      `json:"validation_status"`
}
