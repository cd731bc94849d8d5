package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/rosematcha/ciphermaniac/internal/api/response"
	"github.com/rosematcha/ciphermaniac/internal/engine"
)

// CardsHandler serves per-card usage and archetype attribution.
type CardsHandler struct {
	engine *engine.Engine
}

// NewCardsHandler creates a new cards handler.
func NewCardsHandler(eng *engine.Engine) *CardsHandler {
	return &CardsHandler{engine: eng}
}

// cardParams extracts the card UID and tournament query parameter.
func cardParams(r *http.Request) (uid, tournament string, err error) {
	uid = chi.URLParam(r, "uid")
	if decoded, uerr := url.PathUnescape(uid); uerr == nil {
		uid = decoded
	}

	tournament = r.URL.Query().Get("tournament")
	if tournament == "" {
		return "", "", errors.New("tournament parameter is required")
	}
	return uid, tournament, nil
}

// Usage returns a card's variant-combined usage in one tournament.
func (h *CardsHandler) Usage(w http.ResponseWriter, r *http.Request) {
	uid, tournament, err := cardParams(r)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	usage, err := h.engine.CardUsageFor(tournament, uid)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, usage)
}

// Archetype returns the archetype that best represents a card in one
// tournament.
func (h *CardsHandler) Archetype(w http.ResponseWriter, r *http.Request) {
	uid, tournament, err := cardParams(r)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	pick, err := h.engine.ArchetypeFor(r.Context(), tournament, uid)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, pick)
}
