// Package handlers implements the HTTP handlers over the aggregation engine.
package handlers

import (
	"errors"
	"net/http"

	"github.com/rosematcha/ciphermaniac/internal/api/response"
	"github.com/rosematcha/ciphermaniac/internal/engine"
	"github.com/rosematcha/ciphermaniac/internal/fetch"
)

// writeError maps engine errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrNotLoaded):
		response.ServiceUnavailable(w, err)
	case errors.Is(err, engine.ErrUnknownTournament),
		errors.Is(err, engine.ErrCardNotFound),
		errors.Is(err, fetch.ErrNotFound):
		response.NotFound(w, err)
	default:
		response.InternalError(w, err)
	}
}
