package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carbonacre/carbonacre/internal/biomass"
	"github.com/carbonacre/carbonacre/internal/models"
)

// handleEstimateTree runs the estimator for one tree and upserts the result.
// Insufficient measurements are fatal here, unlike in plot aggregation.
func (a *App) handleEstimateTree(w http.ResponseWriter, r *http.Request) {
	tree, ok := a.ownedTree(w, r)
	if !ok {
		return
	}

	est, err := a.estimator.Estimate(biomass.Measurement{
		HeightM:     tree.HeightM,
		DBHCm:       tree.DBHCm,
		CrownAreaM2: tree.CrownAreaM2,
		SpeciesCode: tree.SpeciesCode,
	})
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	if err := a.store.SaveEstimate(r.Context(), tree.ID, est); err != nil {
		a.writePipelineError(w, err)
		return
	}
	estimatesTotal.Inc()
	a.writeJSON(w, http.StatusOK, est)
}

func (a *App) handleGetEstimate(w http.ResponseWriter, r *http.Request) {
	tree, ok := a.ownedTree(w, r)
	if !ok {
		return
	}
	est, err := a.store.GetEstimate(r.Context(), tree.ID)
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, est)
}

func (a *App) handleEstimatePlot(w http.ResponseWriter, r *http.Request) {
	plot, ok := a.ownedPlot(w, r)
	if !ok {
		return
	}
	agg, err := a.aggregator.EstimatePlot(r.Context(), plot.ID)
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, agg)
}

// handleGetCredits computes credits for the plot's current total biomass with
// the latest market price. Pure read-then-compute, nothing persisted.
func (a *App) handleGetCredits(w http.ResponseWriter, r *http.Request) {
	plot, ok := a.ownedPlot(w, r)
	if !ok {
		return
	}
	agg, err := a.aggregator.EstimatePlot(r.Context(), plot.ID)
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	result, err := a.converter.CalculateWithPricing(r.Context(), agg.TotalBiomassKg)
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, result)
}

// handleSaveCredits computes credits and persists the snapshot for the
// calling user.
func (a *App) handleSaveCredits(w http.ResponseWriter, r *http.Request) {
	plot, ok := a.ownedPlot(w, r)
	if !ok {
		return
	}
	agg, err := a.aggregator.EstimatePlot(r.Context(), plot.ID)
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	result, err := a.converter.CalculateWithPricing(r.Context(), agg.TotalBiomassKg)
	if err != nil {
		a.writePipelineError(w, err)
		return
	}

	snapshot := &models.CreditResult{
		UserID:          mustUserID(r),
		PlotID:          plot.ID,
		BiomassKg:       result.BiomassKg,
		CarbonStockKg:   result.CarbonStockKg,
		CarbonStockTons: result.CarbonStockTons,
		CO2eKg:          result.CO2eKg,
		CO2eTons:        result.CO2eTons,
		Credits:         result.Credits,
		USDPerCredit:    result.USDPerCredit,
		INRPerCredit:    result.INRPerCredit,
		ValueUSD:        result.ValueUSD,
		ValueINR:        result.ValueINR,
		CreatedAt:       time.Now().UTC(),
	}
	if err := a.store.InsertCreditResult(r.Context(), snapshot); err != nil {
		a.writePipelineError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, snapshot)
}

func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	plot, ok := a.ownedPlot(w, r)
	if !ok {
		return
	}
	result, err := a.builder.Export(r.Context(), plot.ID)
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	exportsTotal.Inc()

	if a.cfg.AutoAnchor {
		txID, err := a.anchor.Anchor(r.Context(), result.PkgID, result.Hash)
		if err != nil {
			// The package exists and verifies; anchoring can be retried later.
			a.logger.Error().Err(err).Str("pkg_id", result.PkgID).Msg("Auto-anchor failed")
		} else if err := a.store.SetPackageAnchor(r.Context(), result.PkgID, txID); err != nil {
			a.logger.Error().Err(err).Str("pkg_id", result.PkgID).Msg("Storing anchor tx failed")
		} else {
			result.LedgerTxID = txID
		}
	}

	a.writeJSON(w, http.StatusCreated, result)
}

func (a *App) handleGetPackage(w http.ResponseWriter, r *http.Request) {
	pkg, err := a.store.GetPackage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, pkg)
}

func (a *App) handleVerifyPackage(w http.ResponseWriter, r *http.Request) {
	result, err := a.verifier.Verify(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	verificationsTotal.Inc()
	if !result.Matches {
		verifyMismatchesTotal.Inc()
	}
	a.writeJSON(w, http.StatusOK, result)
}

func (a *App) handleAnchorPackage(w http.ResponseWriter, r *http.Request) {
	pkgID := chi.URLParam(r, "id")
	pkg, err := a.store.GetPackage(r.Context(), pkgID)
	if err != nil {
		a.writePipelineError(w, err)
		return
	}

	txID, err := a.anchor.Anchor(r.Context(), pkg.ID, pkg.TopHash)
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	if err := a.store.SetPackageAnchor(r.Context(), pkg.ID, txID); err != nil {
		a.writePipelineError(w, err)
		return
	}
	pkg.LedgerTxID = txID
	a.writeJSON(w, http.StatusOK, pkg)
}
