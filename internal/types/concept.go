package types

// Layers is the three-level positioning of a concept: broad industry,
// sub-audience niche, and the unique value zone inside that niche.
type Layers struct {
	Layer1 string `json:"Layer1"`
	Layer2 string `json:"Layer2"`
	Layer3 string `json:"Layer3"`
}

// DefaultLayers is used when a spec is built from a concept that carries
// no layers of its own.
var DefaultLayers = Layers{
	Layer1: "Industry",
	Layer2: "Niche",
	Layer3: "Unique Value Zone",
}

type Concept struct {
	OptionLetter           string   `json:"OptionLetter"`
	Id                     string   `json:"Id"`
	Title                  string   `json:"Title"`
	TargetAudience         string   `json:"TargetAudience"`
	CoreGoal               string   `json:"CoreGoal"`
	Tone                   string   `json:"Tone"`
	ProductAngle           string   `json:"ProductAngle"`
	ProductType            string   `json:"ProductType"`
	KeyPainPoints          []string `json:"KeyPainPoints"`
	UniqueValue            string   `json:"UniqueValue"`
	TargetOutcome          string   `json:"TargetOutcome"`
	Layers                 *Layers  `json:"Layers,omitempty"`
	SignatureFrameworkName string   `json:"SignatureFrameworkName"`
}

// RefinementData is the result of the refine stage. Callers persist it
// and replay it into the spec stage.
type RefinementData struct {
	Concepts []Concept `json:"Concepts"`
}

type RefineIn struct {
	Idea string `json:"idea"`
}

type RefineOut struct {
	RefinementData
}
