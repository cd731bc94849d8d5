package handlers

import (
	"net/http"

	"github.com/rosematcha/ciphermaniac/internal/api/response"
	"github.com/rosematcha/ciphermaniac/internal/engine"
)

// TournamentsHandler serves the loaded tournament window.
type TournamentsHandler struct {
	engine *engine.Engine
}

// NewTournamentsHandler creates a new tournaments handler.
func NewTournamentsHandler(eng *engine.Engine) *TournamentsHandler {
	return &TournamentsHandler{engine: eng}
}

// List returns the loaded tournaments, oldest first.
func (h *TournamentsHandler) List(w http.ResponseWriter, _ *http.Request) {
	tournaments, err := h.engine.Tournaments()
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, tournaments)
}

// Refresh reloads the tournament window from the asset store.
func (h *TournamentsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	event, err := h.engine.Refresh(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, event)
}
