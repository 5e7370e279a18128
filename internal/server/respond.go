package server

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/carbonacre/carbonacre/internal/biomass"
	"github.com/carbonacre/carbonacre/internal/mrv"
	"github.com/carbonacre/carbonacre/internal/store"
)

type errorResp struct {
	Error string `json:"error"`
}

func (a *App) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error().Err(err).Msg("Encoding response failed")
	}
}

func (a *App) writeError(w http.ResponseWriter, status int, msg string) {
	a.writeJSON(w, status, errorResp{Error: msg})
}

// writePipelineError maps pipeline errors onto the HTTP taxonomy: not-found
// and input errors are client errors, everything else is a server failure
// with the detail kept out of the response body.
func (a *App) writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		a.writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, biomass.ErrInsufficientMeasurements):
		a.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, mrv.ErrArtifactsMissing):
		a.writeError(w, http.StatusGone, "package artifact files missing")
	default:
		a.logger.Error().Err(err).Msg("Pipeline operation failed")
		a.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
