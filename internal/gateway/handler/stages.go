package handler

import (
	"net/http"

	"nexa/internal/pipeline"
	"nexa/internal/types"
)

func (h *Handler) RefineIdea(w http.ResponseWriter, r *http.Request) {
	var in types.RefineIn
	if err := decode(w, r, refineSchema, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := h.stageContext(r.Context())
	defer cancel()
	out, err := h.stages.Refine(ctx, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, out.RefinementData)
}

// ChooseOption turns a selected concept into a spec without a model call.
func (h *Handler) ChooseOption(w http.ResponseWriter, r *http.Request) {
	var in types.SpecIn
	if err := decode(w, r, specSchema, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := pipeline.ChooseOption(in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, out)
}

func (h *Handler) BuildProductSpec(w http.ResponseWriter, r *http.Request) {
	var in types.SpecIn
	if err := decode(w, r, specSchema, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := h.stageContext(r.Context())
	defer cancel()
	out, err := h.stages.BuildSpec(ctx, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, out)
}

func (h *Handler) GenerateProduct(w http.ResponseWriter, r *http.Request) {
	var in types.GenerateIn
	if err := decode(w, r, generateSchema, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := h.stageContext(r.Context())
	defer cancel()
	out, err := h.stages.Generate(ctx, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, out.ProductDocument)
}
