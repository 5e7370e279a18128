// Package mrv builds, checksums, and verifies exportable MRV packages: the
// self-contained artifact bundles evidencing a plot's measurements, method,
// and results for audit or registry submission.
package mrv

// SchemaVersion identifies the artifact schema.
const SchemaVersion = "1.0"

// MethodName and ModelVersion identify the estimation method in manifests.
const (
	MethodName   = "agb-allometric-fallback"
	ModelVersion = "1.0.0"
)

// Relative artifact paths within a package folder. These exact keys feed the
// checksum map, and their lexicographic order fixes the aggregate hash.
const (
	PathInputs    = "inputs/trees.json"
	PathOutputs   = "outputs/estimates.json"
	PathManifest  = "manifest.json"
	PathSummary   = "reports/summary.md"
	PathChecksums = "checksums.json"
)

type inputsDoc struct {
	Plot  inputsPlot   `json:"plot"`
	Trees []inputsTree `json:"trees"`
}

type inputsPlot struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	AgroEcozone     string         `json:"agroEcozone"`
	BoundaryGeojson map[string]any `json:"boundaryGeojson"`
}

type inputsTree struct {
	ID          string   `json:"id"`
	SpeciesCode string   `json:"speciesCode"`
	SpeciesName string   `json:"speciesName"`
	HeightM     *float64 `json:"heightM"`
	DBHCm       *float64 `json:"dbhCm"`
	CrownAreaM2 *float64 `json:"crownAreaM2"`
	Health      string   `json:"health"`
}

type outputsDoc struct {
	PerTree []outputsTree `json:"perTree"`
	Totals  outputsTotals `json:"totals"`
}

type outputsTree struct {
	ID       string  `json:"id"`
	AGBKg    float64 `json:"agbKg"`
	CarbonKg float64 `json:"carbonKg"`
	UncPct   float64 `json:"uncPct"`
	Method   string  `json:"method"`
	ModelVer string  `json:"modelVer"`
}

type outputsTotals struct {
	TotalTrees     int     `json:"totalTrees"`
	PlotAGBTons    float64 `json:"plotAGBTons"`
	PlotCarbonTons float64 `json:"plotCarbonTons"`
}

type manifestDoc struct {
	SchemaVersion string              `json:"schemaVersion"`
	GeneratedAt   string              `json:"generatedAt"`
	PlotID        string              `json:"plotId"`
	Method        manifestMethod      `json:"method"`
	Uncertainty   manifestUncertainty `json:"uncertainty"`
	Provenance    manifestProvenance  `json:"provenance"`
}

type manifestMethod struct {
	Name         string             `json:"name"`
	ModelVersion string             `json:"modelVersion"`
	CodeCommit   string             `json:"codeCommit"`
	Parameters   manifestParameters `json:"parameters"`
}

type manifestParameters struct {
	CarbonFraction     float64 `json:"carbonFraction"`
	DefaultWoodDensity float64 `json:"defaultWoodDensity"`
}

type manifestUncertainty struct {
	Approach string  `json:"approach"`
	ValuePct float64 `json:"valuePct"`
}

type manifestProvenance struct {
	App string `json:"app"`
	Env string `json:"env"`
}

type checksumsDoc struct {
	Files map[string]string `json:"files"`
}
