package mrv

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/carbonacre/carbonacre/internal/biomass"
	"github.com/carbonacre/carbonacre/internal/models"
	"github.com/carbonacre/carbonacre/internal/store"
)

// compactTimestamp is the UTC layout used in package folder names.
const compactTimestamp = "20060102T150405Z"

// Provenance tags the manifest with the producing application and
// environment.
type Provenance struct {
	App        string
	Env        string
	CodeCommit string
}

// ExportResult is returned by a successful export.
type ExportResult struct {
	PkgID        string `json:"pkgId"`
	Hash         string `json:"hash"`
	ArtifactsURI string `json:"artifactsUri"`
	LedgerTxID   string `json:"ledgerTxId,omitempty"`
}

// Builder assembles MRV packages from persisted plot data. Artifact folders
// under the root are create-only: a re-export makes a new timestamped folder,
// never overwrites an old one.
type Builder struct {
	store      store.Store
	root       string
	provenance Provenance
	logger     zerolog.Logger
	now        func() time.Time
}

// NewBuilder creates a package builder writing under the given artifacts root.
func NewBuilder(st store.Store, root string, prov Provenance, logger zerolog.Logger) *Builder {
	return &Builder{
		store:      st,
		root:       root,
		provenance: prov,
		logger:     logger,
		now:        time.Now,
	}
}

// Export builds the artifact bundle for the plot and persists the package
// record. The record is inserted only after every file and checksum has been
// written; any failure mid-way aborts with no package row and the partial
// folder removed. A missing plot surfaces store.ErrNotFound.
func (b *Builder) Export(ctx context.Context, plotID primitive.ObjectID) (*ExportResult, error) {
	plot, err := b.store.GetPlot(ctx, plotID)
	if err != nil {
		return nil, fmt.Errorf("load plot: %w", err)
	}
	trees, err := b.store.ListTrees(ctx, plotID)
	if err != nil {
		return nil, fmt.Errorf("load trees: %w", err)
	}

	generatedAt := b.now().UTC()
	inputs, outputs := b.buildDocuments(ctx, plot, trees)
	manifest := manifestDoc{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   generatedAt.Format(time.RFC3339),
		PlotID:        plotID.Hex(),
		Method: manifestMethod{
			Name:         MethodName,
			ModelVersion: ModelVersion,
			CodeCommit:   b.provenance.CodeCommit,
			Parameters: manifestParameters{
				CarbonFraction:     biomass.CarbonFraction,
				DefaultWoodDensity: biomass.DefaultWoodDensity,
			},
		},
		Uncertainty: manifestUncertainty{Approach: "fixed-uncertainty MVP", ValuePct: 0.20},
		Provenance:  manifestProvenance{App: b.provenance.App, Env: b.provenance.Env},
	}
	summary := renderSummary(plot, outputs.Totals, generatedAt)

	dir, err := b.createPackageDir(plotID, generatedAt)
	if err != nil {
		return nil, err
	}

	topHash, err := b.writeArtifacts(dir, inputs, outputs, manifest, summary)
	if err != nil {
		// Partial folders are never left behind; the record was never inserted.
		_ = os.RemoveAll(dir)
		return nil, err
	}

	pkg := &models.MRVPackage{
		ID:            "mrv_" + uuid.NewString(),
		PlotID:        plotID,
		SchemaVersion: SchemaVersion,
		ArtifactsPath: dir,
		TopHash:       topHash,
		CreatedAt:     generatedAt,
	}
	if err := b.store.InsertPackage(ctx, pkg); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("persist package record: %w", err)
	}

	b.logger.Info().
		Str("pkg_id", pkg.ID).
		Str("plot_id", plotID.Hex()).
		Str("hash", topHash).
		Msg("Exported MRV package")

	return &ExportResult{PkgID: pkg.ID, Hash: topHash, ArtifactsURI: dir}, nil
}

// buildDocuments snapshots the plot, its trees, and their stored estimates
// into the inputs and outputs documents. Trees without a stored estimate
// appear in inputs but not outputs.
func (b *Builder) buildDocuments(ctx context.Context, plot *models.Plot, trees []models.Tree) (inputsDoc, outputsDoc) {
	inputs := inputsDoc{
		Plot: inputsPlot{
			ID:              plot.ID.Hex(),
			Name:            plot.Name,
			AgroEcozone:     plot.AgroEcozone,
			BoundaryGeojson: plot.Boundary,
		},
		Trees: []inputsTree{},
	}
	outputs := outputsDoc{PerTree: []outputsTree{}}

	var totalAGBKg, totalCarbonKg float64
	for _, tree := range trees {
		speciesName := ""
		if sp, ok := biomass.LookupSpecies(tree.SpeciesCode); ok {
			speciesName = sp.Name
		}
		inputs.Trees = append(inputs.Trees, inputsTree{
			ID:          tree.ID.Hex(),
			SpeciesCode: tree.SpeciesCode,
			SpeciesName: speciesName,
			HeightM:     tree.HeightM,
			DBHCm:       tree.DBHCm,
			CrownAreaM2: tree.CrownAreaM2,
			Health:      tree.Health,
		})

		est, err := b.store.GetEstimate(ctx, tree.ID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			b.logger.Warn().Str("tree_id", tree.ID.Hex()).Err(err).
				Msg("Skipping unreadable estimate")
			continue
		}
		outputs.PerTree = append(outputs.PerTree, outputsTree{
			ID:       tree.ID.Hex(),
			AGBKg:    est.BiomassKg,
			CarbonKg: est.CarbonKg,
			UncPct:   est.UncertaintyPct,
			Method:   est.Method,
			ModelVer: ModelVersion,
		})
		totalAGBKg += est.BiomassKg
		totalCarbonKg += est.CarbonKg
	}

	outputs.Totals = outputsTotals{
		TotalTrees:     len(outputs.PerTree),
		PlotAGBTons:    roundTo(totalAGBKg/biomass.KgPerTon, 3),
		PlotCarbonTons: roundTo(totalCarbonKg/biomass.KgPerTon, 3),
	}
	return inputs, outputs
}

// createPackageDir makes the uniquely named package folder. A same-second
// re-export gets a numeric suffix; existing folders are never reused.
func (b *Builder) createPackageDir(plotID primitive.ObjectID, ts time.Time) (string, error) {
	if err := os.MkdirAll(b.root, 0o755); err != nil {
		return "", fmt.Errorf("create artifacts root: %w", err)
	}
	base := fmt.Sprintf("mrv_pkg_%s_%s", plotID.Hex(), ts.Format(compactTimestamp))
	dir := filepath.Join(b.root, base)
	for n := 2; ; n++ {
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("create package dir: %w", err)
		}
		dir = filepath.Join(b.root, fmt.Sprintf("%s_%d", base, n))
	}
}

// writeArtifacts writes the four artifact files, their checksum map, and
// returns the aggregate top-level hash.
func (b *Builder) writeArtifacts(dir string, inputs inputsDoc, outputs outputsDoc, manifest manifestDoc, summary string) (string, error) {
	if err := writeJSONFile(filepath.Join(dir, PathInputs), inputs); err != nil {
		return "", err
	}
	if err := writeJSONFile(filepath.Join(dir, PathOutputs), outputs); err != nil {
		return "", err
	}
	if err := writeJSONFile(filepath.Join(dir, PathManifest), manifest); err != nil {
		return "", err
	}
	if err := writeTextFile(filepath.Join(dir, PathSummary), summary); err != nil {
		return "", err
	}

	files := make(map[string]string, 4)
	for _, rel := range []string{PathInputs, PathOutputs, PathManifest, PathSummary} {
		digest, err := hashFile(filepath.Join(dir, rel))
		if err != nil {
			return "", fmt.Errorf("checksum %s: %w", rel, err)
		}
		files[rel] = digest
	}
	if err := writeJSONFile(filepath.Join(dir, PathChecksums), checksumsDoc{Files: files}); err != nil {
		return "", err
	}

	return AggregateHash(files), nil
}

func writeJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s parent: %w", path, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeTextFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s parent: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// renderSummary produces the fixed-template human-readable report.
func renderSummary(plot *models.Plot, totals outputsTotals, generatedAt time.Time) string {
	return fmt.Sprintf(`# MRV Summary

- **Plot**: %s (`+"`%s`"+`)
- **Trees measured**: %d
- **Above-ground biomass**: %.3f t
- **Carbon stock**: %.3f t
- **Generated**: %s

Produced by the %s estimation pipeline, model version %s.
`,
		plot.Name, plot.ID.Hex(),
		totals.TotalTrees,
		totals.PlotAGBTons,
		totals.PlotCarbonTons,
		generatedAt.Format(time.RFC3339),
		MethodName, ModelVersion,
	)
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
