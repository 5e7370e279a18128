package biomass

import (
	"context"
	"fmt"

	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/carbonacre/carbonacre/internal/models"
)

// EstimateStore is the persistence surface the aggregator needs: tree listing
// and idempotent estimate upserts keyed by tree id.
type EstimateStore interface {
	ListTrees(ctx context.Context, plotID primitive.ObjectID) ([]models.Tree, error)
	SaveEstimate(ctx context.Context, treeID primitive.ObjectID, est *Estimate) error
}

// TreeResult pairs a tree with its successful estimate.
type TreeResult struct {
	TreeID   primitive.ObjectID `json:"treeId"`
	Estimate *Estimate          `json:"estimate"`
}

// PlotAggregate sums estimates across a plot's trees. Always derived fresh;
// never persisted as its own entity.
type PlotAggregate struct {
	PlotID primitive.ObjectID `json:"plotId"`

	// TotalTrees counts only trees that produced an estimate.
	TotalTrees int          `json:"totalTrees"`
	Trees      []TreeResult `json:"trees"`

	TotalBiomassKg   float64 `json:"totalBiomassKg"`
	TotalBiomassTons float64 `json:"totalBiomassTons"`
	TotalCarbonKg    float64 `json:"totalCarbonKg"`
	TotalCarbonTons  float64 `json:"totalCarbonTons"`
	TotalCO2eKg      float64 `json:"totalCo2eKg"`
	TotalCO2eTons    float64 `json:"totalCo2eTons"`

	// AvgUncertaintyPct is the mean across succeeding trees, 0 if none.
	AvgUncertaintyPct float64 `json:"avgUncertaintyPct"`
}

// Aggregator runs the estimator over every tree in a plot sequentially and
// accumulates the successful results. Per-tree failures are logged and the
// tree is excluded from totals; they never abort siblings.
type Aggregator struct {
	estimator *Estimator
	store     EstimateStore
	logger    zerolog.Logger
}

// NewAggregator creates a plot aggregator backed by the given store.
func NewAggregator(store EstimateStore, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		estimator: NewEstimator(),
		store:     store,
		logger:    logger,
	}
}

// EstimatePlot estimates every tree in the plot, persists each successful
// estimate with upsert semantics, and returns the plot-level totals.
func (a *Aggregator) EstimatePlot(ctx context.Context, plotID primitive.ObjectID) (*PlotAggregate, error) {
	trees, err := a.store.ListTrees(ctx, plotID)
	if err != nil {
		return nil, fmt.Errorf("list trees for plot %s: %w", plotID.Hex(), err)
	}

	agg := &PlotAggregate{PlotID: plotID, Trees: []TreeResult{}}
	uncertainties := make([]float64, 0, len(trees))

	for _, tree := range trees {
		est, err := a.estimator.Estimate(Measurement{
			HeightM:     tree.HeightM,
			DBHCm:       tree.DBHCm,
			CrownAreaM2: tree.CrownAreaM2,
			SpeciesCode: tree.SpeciesCode,
		})
		if err != nil {
			a.logger.Warn().
				Str("tree_id", tree.ID.Hex()).
				Str("plot_id", plotID.Hex()).
				Err(err).
				Msg("Skipping tree without usable measurements")
			continue
		}
		if err := a.store.SaveEstimate(ctx, tree.ID, est); err != nil {
			return nil, fmt.Errorf("save estimate for tree %s: %w", tree.ID.Hex(), err)
		}

		agg.Trees = append(agg.Trees, TreeResult{TreeID: tree.ID, Estimate: est})
		agg.TotalBiomassKg += est.BiomassKg
		agg.TotalCarbonKg += est.CarbonKg
		agg.TotalCO2eKg += est.CO2eKg
		uncertainties = append(uncertainties, est.UncertaintyPct)
	}

	agg.TotalTrees = len(agg.Trees)
	agg.TotalBiomassKg = roundTo(agg.TotalBiomassKg, 2)
	agg.TotalCarbonKg = roundTo(agg.TotalCarbonKg, 2)
	agg.TotalCO2eKg = roundTo(agg.TotalCO2eKg, 2)
	agg.TotalBiomassTons = roundTo(agg.TotalBiomassKg/KgPerTon, 3)
	agg.TotalCarbonTons = roundTo(agg.TotalCarbonKg/KgPerTon, 3)
	agg.TotalCO2eTons = roundTo(agg.TotalCO2eKg/KgPerTon, 3)

	if len(uncertainties) > 0 {
		mean, err := stats.Mean(uncertainties)
		if err != nil {
			return nil, fmt.Errorf("average uncertainty: %w", err)
		}
		agg.AvgUncertaintyPct = roundTo(mean, 1)
	}

	return agg, nil
}
