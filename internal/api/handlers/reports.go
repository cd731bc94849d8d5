package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rosematcha/ciphermaniac/internal/api/response"
	"github.com/rosematcha/ciphermaniac/internal/engine"
)

// ReportsHandler serves master and archetype usage reports.
type ReportsHandler struct {
	engine *engine.Engine
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(eng *engine.Engine) *ReportsHandler {
	return &ReportsHandler{engine: eng}
}

// tournamentParam extracts and unescapes the tournament path parameter.
// Folder names carry commas and spaces, so clients escape them.
func tournamentParam(r *http.Request) string {
	raw := chi.URLParam(r, "tournament")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// Get returns one tournament's master report, or an archetype's slice of it
// when ?archetype= is given.
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	folder := tournamentParam(r)

	if base := r.URL.Query().Get("archetype"); base != "" {
		rep, err := h.engine.ArchetypeReport(r.Context(), folder, base)
		if err != nil {
			writeError(w, err)
			return
		}
		response.Success(w, rep)
		return
	}

	rep, err := h.engine.MasterReport(folder)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, rep)
}

// Combined aggregates several tournaments' reports into one. Tournaments are
// selected with ?ids=a,b,c; without ids the whole loaded window is combined.
func (h *ReportsHandler) Combined(w http.ResponseWriter, r *http.Request) {
	var folders []string
	if ids := r.URL.Query().Get("ids"); ids != "" {
		for _, id := range strings.Split(ids, ",") {
			if id = strings.TrimSpace(id); id != "" {
				folders = append(folders, id)
			}
		}
		if len(folders) == 0 {
			response.BadRequest(w, errors.New("ids parameter is empty"))
			return
		}
	} else {
		tournaments, err := h.engine.Tournaments()
		if err != nil {
			writeError(w, err)
			return
		}
		for _, t := range tournaments {
			folders = append(folders, t.Folder)
		}
	}

	rep, err := h.engine.CombinedReport(folders)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, rep)
}
