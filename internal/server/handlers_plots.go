package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/carbonacre/carbonacre/internal/models"
)

type plotReq struct {
	Name        string         `json:"name"`
	AgroEcozone string         `json:"agroEcozone,omitempty"`
	Boundary    map[string]any `json:"boundaryGeojson"`
	AreaHa      *float64       `json:"areaHa,omitempty"`
	Notes       string         `json:"notes,omitempty"`
}

// validBoundary checks the minimal GeoJSON contract.
func validBoundary(geom map[string]any) bool {
	t, _ := geom["type"].(string)
	return t == "Polygon" || t == "MultiPolygon"
}

func pathID(r *http.Request) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return oid, err == nil
}

func (a *App) handleCreatePlot(w http.ResponseWriter, r *http.Request) {
	var req plotReq
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if strings.TrimSpace(req.Name) == "" || len(req.Boundary) == 0 {
		a.writeError(w, http.StatusBadRequest, "name and boundaryGeojson are required")
		return
	}
	if !validBoundary(req.Boundary) {
		a.writeError(w, http.StatusBadRequest, "boundaryGeojson.type must be Polygon or MultiPolygon")
		return
	}

	now := time.Now().UTC()
	plot := &models.Plot{
		OwnerID:     mustUserID(r),
		Name:        req.Name,
		AgroEcozone: req.AgroEcozone,
		Boundary:    req.Boundary,
		AreaHa:      req.AreaHa,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.store.InsertPlot(r.Context(), plot); err != nil {
		a.writePipelineError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, plot)
}

func (a *App) handleListPlots(w http.ResponseWriter, r *http.Request) {
	plots, err := a.store.ListPlots(r.Context(), mustUserID(r))
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	if plots == nil {
		plots = []models.Plot{}
	}
	a.writeJSON(w, http.StatusOK, plots)
}

// ownedPlot loads the plot and enforces ownership. Foreign plots read as 404
// so ids are not probeable.
func (a *App) ownedPlot(w http.ResponseWriter, r *http.Request) (*models.Plot, bool) {
	oid, ok := pathID(r)
	if !ok {
		a.writeError(w, http.StatusBadRequest, "bad id")
		return nil, false
	}
	plot, err := a.store.GetPlot(r.Context(), oid)
	if err != nil {
		a.writePipelineError(w, err)
		return nil, false
	}
	if plot.OwnerID != mustUserID(r) {
		a.writeError(w, http.StatusNotFound, "not found")
		return nil, false
	}
	return plot, true
}

func (a *App) handleGetPlot(w http.ResponseWriter, r *http.Request) {
	plot, ok := a.ownedPlot(w, r)
	if !ok {
		return
	}
	a.writeJSON(w, http.StatusOK, plot)
}

func (a *App) handleUpdatePlot(w http.ResponseWriter, r *http.Request) {
	plot, ok := a.ownedPlot(w, r)
	if !ok {
		return
	}

	var req plotReq
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.Name != "" {
		plot.Name = req.Name
	}
	if req.AgroEcozone != "" {
		plot.AgroEcozone = req.AgroEcozone
	}
	if len(req.Boundary) > 0 {
		if !validBoundary(req.Boundary) {
			a.writeError(w, http.StatusBadRequest, "boundaryGeojson.type must be Polygon or MultiPolygon")
			return
		}
		plot.Boundary = req.Boundary
	}
	if req.AreaHa != nil {
		plot.AreaHa = req.AreaHa
	}
	if req.Notes != "" {
		plot.Notes = req.Notes
	}

	if err := a.store.UpdatePlot(r.Context(), plot); err != nil {
		a.writePipelineError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, plot)
}

func (a *App) handleDeletePlot(w http.ResponseWriter, r *http.Request) {
	plot, ok := a.ownedPlot(w, r)
	if !ok {
		return
	}
	if err := a.store.DeletePlot(r.Context(), plot.ID); err != nil {
		a.writePipelineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
