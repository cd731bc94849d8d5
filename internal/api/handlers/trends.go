package handlers

import (
	"net/http"

	"github.com/rosematcha/ciphermaniac/internal/api/response"
	"github.com/rosematcha/ciphermaniac/internal/engine"
)

// TrendsHandler serves generated trend datasets.
type TrendsHandler struct {
	engine *engine.Engine
}

// NewTrendsHandler creates a new trends handler.
func NewTrendsHandler(eng *engine.Engine) *TrendsHandler {
	return &TrendsHandler{engine: eng}
}

// Archetypes returns the archetype meta-share dataset.
func (h *TrendsHandler) Archetypes(w http.ResponseWriter, _ *http.Request) {
	dataset, err := h.engine.MetaShare()
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, dataset)
}

// Cards returns the rising/falling card dataset.
func (h *TrendsHandler) Cards(w http.ResponseWriter, _ *http.Request) {
	dataset, err := h.engine.CardTrends()
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, dataset)
}
