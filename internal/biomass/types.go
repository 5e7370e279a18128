package biomass

// Measurement holds one tree's raw field inputs. All values are independently
// optional; at least one of HeightM, DBHCm, or CrownAreaM2 must be present for
// an estimate to succeed.
type Measurement struct {
	// HeightM is the tree height in meters.
	HeightM *float64

	// DBHCm is the diameter at breast height in centimeters.
	DBHCm *float64

	// CrownAreaM2 is the canopy cover area in square meters.
	CrownAreaM2 *float64

	// SpeciesCode is an optional species lookup key (e.g. "mangifera_indica").
	SpeciesCode string
}

// Method identifies which estimation method produced a result.
type Method int

const (
	// MethodAllometric is the full allometric equation using measured DBH and height.
	MethodAllometric Method = iota

	// MethodCrownDBH applies the allometric equation to a DBH estimated from crown area.
	MethodCrownDBH

	// MethodHeightOnly is the height-only fallback formula.
	MethodHeightOnly

	// MethodCanopyOnly is the canopy-area-only fallback formula.
	MethodCanopyOnly
)

// Label returns the method label recorded on estimates. The full allometric
// method is qualified by the resolved species code, or "generic".
func (m Method) Label(speciesCode string) string {
	switch m {
	case MethodAllometric:
		if speciesCode != "" {
			return "allometric_" + speciesCode
		}
		return "allometric_generic"
	case MethodCrownDBH:
		return "crown_estimated_dbh"
	case MethodHeightOnly:
		return "height_only"
	case MethodCanopyOnly:
		return "canopy_only"
	default:
		return "unknown"
	}
}

// baseUncertainty returns the fixed per-method base uncertainty percentage.
func (m Method) baseUncertainty(hasSpecies bool) float64 {
	switch m {
	case MethodAllometric:
		if hasSpecies {
			return uncertaintyAllometricSpecies
		}
		return uncertaintyAllometricGeneric
	case MethodCrownDBH:
		return uncertaintyCrownDBH
	case MethodHeightOnly:
		return uncertaintyHeightOnly
	case MethodCanopyOnly:
		return uncertaintyCanopyOnly
	default:
		return uncertaintyUnknownMethod
	}
}

// Estimate is the derived biomass/carbon result for one tree measurement.
// Values are rounded: kilograms to 2 decimal places, uncertainty and
// confidence to 1. Immutable once computed for a given input set.
type Estimate struct {
	// BiomassKg is the above-ground biomass, clamped to MinBiomassKg.
	BiomassKg float64 `json:"biomassKg"`

	// CarbonKg is BiomassKg × CarbonFraction.
	CarbonKg float64 `json:"carbonKg"`

	// CO2eKg is CarbonKg × CO2ToCarbonRatio.
	CO2eKg float64 `json:"co2eKg"`

	// UncertaintyPct combines the method base uncertainty with the species
	// uncertainty by root-sum-of-squares when species data was used.
	UncertaintyPct float64 `json:"uncertaintyPct"`

	// ConfidencePct is the method-dependent confidence score.
	ConfidencePct float64 `json:"confidencePct"`

	// Method is the label of the estimation method that fired.
	Method string `json:"method"`

	// Species is the species row used, nil when the code did not resolve.
	Species *Species `json:"species,omitempty"`
}
