package mrv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/carbonacre/carbonacre/internal/biomass"
	"github.com/carbonacre/carbonacre/internal/models"
	"github.com/carbonacre/carbonacre/internal/store"
)

func f(v float64) *float64 { return &v }

// seedPlot inserts a plot with two estimated trees and one without any
// estimate.
func seedPlot(t *testing.T, st *store.Memory) primitive.ObjectID {
	t.Helper()
	ctx := context.Background()

	plot := &models.Plot{
		OwnerID:     primitive.NewObjectID(),
		Name:        "North Orchard",
		AgroEcozone: "semi-arid",
		Boundary: map[string]any{
			"type":        "Polygon",
			"coordinates": []any{},
		},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.InsertPlot(ctx, plot))

	est := biomass.NewEstimator()
	base := time.Now().UTC()
	for i, tree := range []*models.Tree{
		{PlotID: plot.ID, SpeciesCode: "tectona_grandis", HeightM: f(15), DBHCm: f(60)},
		{PlotID: plot.ID, HeightM: f(5)},
	} {
		tree.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, st.InsertTree(ctx, tree))
		e, err := est.Estimate(biomass.Measurement{
			HeightM:     tree.HeightM,
			DBHCm:       tree.DBHCm,
			SpeciesCode: tree.SpeciesCode,
		})
		require.NoError(t, err)
		require.NoError(t, st.SaveEstimate(ctx, tree.ID, e))
	}

	// One tree never estimated: present in inputs, absent from outputs.
	require.NoError(t, st.InsertTree(ctx, &models.Tree{
		PlotID:    plot.ID,
		CreatedAt: base.Add(time.Minute),
	}))

	return plot.ID
}

func newTestBuilder(st *store.Memory, root string) *Builder {
	return NewBuilder(st, root, Provenance{App: "carbonacre", Env: "test", CodeCommit: "abc123"}, zerolog.Nop())
}

func TestExportWritesAllArtifacts(t *testing.T) {
	st := store.NewMemory()
	plotID := seedPlot(t, st)
	root := t.TempDir()

	res, err := newTestBuilder(st, root).Export(context.Background(), plotID)
	require.NoError(t, err)
	require.NotEmpty(t, res.PkgID)
	require.NotEmpty(t, res.Hash)

	for _, rel := range []string{PathInputs, PathOutputs, PathManifest, PathSummary, PathChecksums} {
		_, err := os.Stat(filepath.Join(res.ArtifactsURI, rel))
		assert.NoError(t, err, rel)
	}

	pkg, err := st.GetPackage(context.Background(), res.PkgID)
	require.NoError(t, err)
	assert.Equal(t, res.Hash, pkg.TopHash)
	assert.Equal(t, SchemaVersion, pkg.SchemaVersion)
	assert.Equal(t, res.ArtifactsURI, pkg.ArtifactsPath)
}

func TestExportDocumentContents(t *testing.T) {
	st := store.NewMemory()
	plotID := seedPlot(t, st)

	res, err := newTestBuilder(st, t.TempDir()).Export(context.Background(), plotID)
	require.NoError(t, err)

	var inputs struct {
		Plot struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"plot"`
		Trees []struct {
			SpeciesName string `json:"speciesName"`
		} `json:"trees"`
	}
	raw, err := os.ReadFile(filepath.Join(res.ArtifactsURI, PathInputs))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &inputs))
	assert.Equal(t, plotID.Hex(), inputs.Plot.ID)
	assert.Equal(t, "North Orchard", inputs.Plot.Name)
	assert.Len(t, inputs.Trees, 3)
	assert.Equal(t, "Teak", inputs.Trees[0].SpeciesName)

	var outputs struct {
		PerTree []struct {
			Method string `json:"method"`
		} `json:"perTree"`
		Totals struct {
			TotalTrees int `json:"totalTrees"`
		} `json:"totals"`
	}
	raw, err = os.ReadFile(filepath.Join(res.ArtifactsURI, PathOutputs))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &outputs))
	assert.Equal(t, 2, outputs.Totals.TotalTrees)
	require.Len(t, outputs.PerTree, 2)
	assert.Equal(t, "allometric_tectona_grandis", outputs.PerTree[0].Method)

	var manifest struct {
		SchemaVersion string `json:"schemaVersion"`
		Method        struct {
			Parameters struct {
				CarbonFraction float64 `json:"carbonFraction"`
			} `json:"parameters"`
		} `json:"method"`
	}
	raw, err = os.ReadFile(filepath.Join(res.ArtifactsURI, PathManifest))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &manifest))
	assert.Equal(t, "1.0", manifest.SchemaVersion)
	assert.InDelta(t, 0.47, manifest.Method.Parameters.CarbonFraction, 1e-9)
}

func TestExportUnknownPlot(t *testing.T) {
	st := store.NewMemory()
	_, err := newTestBuilder(st, t.TempDir()).Export(context.Background(), primitive.NewObjectID())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestExportNeverOverwrites(t *testing.T) {
	st := store.NewMemory()
	plotID := seedPlot(t, st)
	root := t.TempDir()
	b := newTestBuilder(st, root)

	// Freeze the clock so both exports collide on the folder name.
	fixed := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	b.now = func() time.Time { return fixed }

	first, err := b.Export(context.Background(), plotID)
	require.NoError(t, err)
	second, err := b.Export(context.Background(), plotID)
	require.NoError(t, err)

	assert.NotEqual(t, first.ArtifactsURI, second.ArtifactsURI)
	assert.NotEqual(t, first.PkgID, second.PkgID)
}

func TestVerifyRoundTrip(t *testing.T) {
	st := store.NewMemory()
	plotID := seedPlot(t, st)

	res, err := newTestBuilder(st, t.TempDir()).Export(context.Background(), plotID)
	require.NoError(t, err)

	v := NewVerifier(st, zerolog.Nop())
	out, err := v.Verify(context.Background(), res.PkgID)
	require.NoError(t, err)

	assert.True(t, out.Matches)
	assert.Equal(t, res.Hash, out.StoredChecksum)
	assert.Equal(t, res.Hash, out.RecomputedChecksum)
}

func TestVerifyDetectsTampering(t *testing.T) {
	st := store.NewMemory()
	plotID := seedPlot(t, st)

	res, err := newTestBuilder(st, t.TempDir()).Export(context.Background(), plotID)
	require.NoError(t, err)

	// Flip one byte of the summary report.
	target := filepath.Join(res.ArtifactsURI, PathSummary)
	raw, err := os.ReadFile(target)
	require.NoError(t, err)
	raw[0] ^= 0xFF
	require.NoError(t, os.WriteFile(target, raw, 0o644))

	out, err := NewVerifier(st, zerolog.Nop()).Verify(context.Background(), res.PkgID)
	require.NoError(t, err)
	assert.False(t, out.Matches)
	assert.NotEqual(t, out.StoredChecksum, out.RecomputedChecksum)
}

func TestVerifyMissingArtifacts(t *testing.T) {
	st := store.NewMemory()
	plotID := seedPlot(t, st)

	res, err := newTestBuilder(st, t.TempDir()).Export(context.Background(), plotID)
	require.NoError(t, err)

	v := NewVerifier(st, zerolog.Nop())

	// Deleting an artifact is a hard error, not a mismatch.
	require.NoError(t, os.Remove(filepath.Join(res.ArtifactsURI, PathSummary)))
	_, err = v.Verify(context.Background(), res.PkgID)
	require.ErrorIs(t, err, ErrArtifactsMissing)

	// So is losing the whole folder.
	require.NoError(t, os.RemoveAll(res.ArtifactsURI))
	_, err = v.Verify(context.Background(), res.PkgID)
	require.ErrorIs(t, err, ErrArtifactsMissing)
}

func TestVerifyUnknownPackage(t *testing.T) {
	v := NewVerifier(store.NewMemory(), zerolog.Nop())
	_, err := v.Verify(context.Background(), "mrv_nope")
	require.ErrorIs(t, err, store.ErrNotFound)
}
