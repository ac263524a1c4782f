package pipeline

import (
	"strings"

	"nexa/internal/textextract"
	t "nexa/internal/types"
)

// Fallbacks used when a chosen concept leaves a spec field blank.
const (
	chooseTitle          = "Untitled Product"
	chooseAudience       = "Target audience"
	chooseUniqueValue    = "Unique value proposition"
	chooseAngle          = "Product positioning"
	chooseTone           = "Professional"
	chooseTransformation = "Desired outcome"
	chooseFramework      = "NEXA"
)

// ChooseOption maps the selected concept straight onto a ProductSpec
// without calling the model. Blank concept fields fall back to fixed
// values; a concept without pain points is rejected.
func ChooseOption(in t.SpecIn) (t.SpecOut, error) {
	c, err := selectConcept(StageChoose, in)
	if err != nil {
		return t.SpecOut{}, err
	}
	letter := in.SelectedOption

	productType := orDefault(c.ProductType, DefaultProductType)
	framework := c.SignatureFrameworkName
	if strings.TrimSpace(framework) == "" || framework == textextract.NotFound {
		framework = "The " + orDefault(c.ProductType, chooseFramework) + " Method"
	}
	spec := t.ProductSpec{
		Title:                  orDefault(c.Title, chooseTitle),
		Audience:               orDefault(c.TargetAudience, chooseAudience),
		CoreProblem:            c.CoreGoal,
		Transformation:         orDefault(c.TargetOutcome, chooseTransformation),
		UniqueValue:            orDefault(c.UniqueValue, chooseUniqueValue),
		Angle:                  orDefault(c.ProductAngle, chooseAngle),
		PainPoints:             nonBlank(c.KeyPainPoints),
		SignatureFrameworkName: framework,
		Tone:                   orDefault(c.Tone, chooseTone),
		ProductType:            productType,
		SelectedOption:         letter,
		OriginalIdea:           in.OriginalIdea,
		ConceptID:              orDefault(c.Id, t.ConceptID(letter)),
		Layers:                 t.DefaultLayers,
	}
	if c.Layers != nil {
		spec.Layers = *c.Layers
	}
	if len(spec.PainPoints) == 0 {
		e := validationError(StageChoose, CodeIncompleteConcept, "Selected concept is incomplete. Missing: pain_points")
		e.Missing = []string{"pain_points"}
		return t.SpecOut{}, e
	}
	return t.SpecOut{
		ProductSpec:      spec,
		SelectedConcept:  c,
		OptionLetter:     letter,
		ValidationStatus: "selected",
	}, nil
}

func nonBlank(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
