package server

import (
	"net/http"
	"time"

	"github.com/carbonacre/carbonacre/internal/models"
)

type treeReq struct {
	SpeciesCode string   `json:"speciesCode,omitempty"`
	HeightM     *float64 `json:"heightM,omitempty"`
	DBHCm       *float64 `json:"dbhCm,omitempty"`
	CrownAreaM2 *float64 `json:"crownAreaM2,omitempty"`
	Health      string   `json:"health,omitempty"`
}

func validMeasurements(req treeReq) (string, bool) {
	if req.HeightM != nil && *req.HeightM < 0 {
		return "heightM must be >= 0", false
	}
	if req.DBHCm != nil && *req.DBHCm < 0 {
		return "dbhCm must be >= 0", false
	}
	if req.CrownAreaM2 != nil && *req.CrownAreaM2 < 0 {
		return "crownAreaM2 must be >= 0", false
	}
	return "", true
}

func (a *App) handleCreateTree(w http.ResponseWriter, r *http.Request) {
	plot, ok := a.ownedPlot(w, r)
	if !ok {
		return
	}

	var req treeReq
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if msg, ok := validMeasurements(req); !ok {
		a.writeError(w, http.StatusBadRequest, msg)
		return
	}

	now := time.Now().UTC()
	tree := &models.Tree{
		PlotID:      plot.ID,
		SpeciesCode: req.SpeciesCode,
		HeightM:     req.HeightM,
		DBHCm:       req.DBHCm,
		CrownAreaM2: req.CrownAreaM2,
		Health:      req.Health,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.store.InsertTree(r.Context(), tree); err != nil {
		a.writePipelineError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, tree)
}

func (a *App) handleListTrees(w http.ResponseWriter, r *http.Request) {
	plot, ok := a.ownedPlot(w, r)
	if !ok {
		return
	}
	trees, err := a.store.ListTrees(r.Context(), plot.ID)
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	if trees == nil {
		trees = []models.Tree{}
	}
	a.writeJSON(w, http.StatusOK, trees)
}

// ownedTree loads a tree and checks that its plot belongs to the caller.
func (a *App) ownedTree(w http.ResponseWriter, r *http.Request) (*models.Tree, bool) {
	oid, ok := pathID(r)
	if !ok {
		a.writeError(w, http.StatusBadRequest, "bad id")
		return nil, false
	}
	tree, err := a.store.GetTree(r.Context(), oid)
	if err != nil {
		a.writePipelineError(w, err)
		return nil, false
	}
	plot, err := a.store.GetPlot(r.Context(), tree.PlotID)
	if err != nil {
		a.writePipelineError(w, err)
		return nil, false
	}
	if plot.OwnerID != mustUserID(r) {
		a.writeError(w, http.StatusNotFound, "not found")
		return nil, false
	}
	return tree, true
}

// handleUpdateTree applies a correction in place. Packages exported earlier
// keep their point-in-time copy on disk and are unaffected.
func (a *App) handleUpdateTree(w http.ResponseWriter, r *http.Request) {
	tree, ok := a.ownedTree(w, r)
	if !ok {
		return
	}

	var req treeReq
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if msg, ok := validMeasurements(req); !ok {
		a.writeError(w, http.StatusBadRequest, msg)
		return
	}

	if req.SpeciesCode != "" {
		tree.SpeciesCode = req.SpeciesCode
	}
	if req.HeightM != nil {
		tree.HeightM = req.HeightM
	}
	if req.DBHCm != nil {
		tree.DBHCm = req.DBHCm
	}
	if req.CrownAreaM2 != nil {
		tree.CrownAreaM2 = req.CrownAreaM2
	}
	if req.Health != "" {
		tree.Health = req.Health
	}

	if err := a.store.UpdateTree(r.Context(), tree); err != nil {
		a.writePipelineError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, tree)
}

func (a *App) handleDeleteTree(w http.ResponseWriter, r *http.Request) {
	tree, ok := a.ownedTree(w, r)
	if !ok {
		return
	}
	if err := a.store.DeleteTree(r.Context(), tree.ID); err != nil {
		a.writePipelineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
