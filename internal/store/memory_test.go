package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/carbonacre/carbonacre/internal/biomass"
	"github.com/carbonacre/carbonacre/internal/models"
)

func TestMemoryEstimateUpsert(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()
	treeID := primitive.NewObjectID()

	_, err := st.GetEstimate(ctx, treeID)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.SaveEstimate(ctx, treeID, &biomass.Estimate{BiomassKg: 10}))
	require.NoError(t, st.SaveEstimate(ctx, treeID, &biomass.Estimate{BiomassKg: 20}))

	est, err := st.GetEstimate(ctx, treeID)
	require.NoError(t, err)
	assert.InDelta(t, 20, est.BiomassKg, 1e-9)
}

func TestMemoryLatestMarketPrice(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	_, err := st.LatestMarketPrice(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	now := time.Now()
	require.NoError(t, st.InsertMarketPrice(ctx, &models.MarketPrice{USDPerCredit: 9, Date: now}))
	require.NoError(t, st.InsertMarketPrice(ctx, &models.MarketPrice{USDPerCredit: 7, Date: now.Add(-time.Hour)}))

	price, err := st.LatestMarketPrice(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 9, price.USDPerCredit, 1e-9)
}

func TestMemoryPackageAnchor(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	pkg := &models.MRVPackage{ID: "mrv_1", TopHash: "abc"}
	require.NoError(t, st.InsertPackage(ctx, pkg))
	require.NoError(t, st.SetPackageAnchor(ctx, "mrv_1", "SIM-123"))

	got, err := st.GetPackage(ctx, "mrv_1")
	require.NoError(t, err)
	assert.Equal(t, "SIM-123", got.LedgerTxID)

	require.ErrorIs(t, st.SetPackageAnchor(ctx, "mrv_2", "x"), ErrNotFound)
}

func TestMemoryDuplicateEmail(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	require.NoError(t, st.InsertUser(ctx, &models.User{Email: "a@b.c"}))
	require.ErrorIs(t, st.InsertUser(ctx, &models.User{Email: "a@b.c"}), ErrDuplicate)
}

func TestMemoryDeletePlotCascades(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	plot := &models.Plot{Name: "p"}
	require.NoError(t, st.InsertPlot(ctx, plot))
	tree := &models.Tree{PlotID: plot.ID}
	require.NoError(t, st.InsertTree(ctx, tree))

	require.NoError(t, st.DeletePlot(ctx, plot.ID))

	_, err := st.GetPlot(ctx, plot.ID)
	require.ErrorIs(t, err, ErrNotFound)
	trees, err := st.ListTrees(ctx, plot.ID)
	require.NoError(t, err)
	assert.Empty(t, trees)
}
