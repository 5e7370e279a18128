package biomass

import (
	"errors"
	"math"
)

// ErrInsufficientMeasurements is returned when no estimation method's
// preconditions hold. Terminal: the caller must supply more data.
var ErrInsufficientMeasurements = errors.New("insufficient measurements: need height, dbh, or canopy area")

// Estimator computes biomass estimates from raw tree measurements.
// Estimation is a pure function of its inputs and the embedded species table.
type Estimator struct{}

// NewEstimator creates a new biomass estimator.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// Estimate selects an estimation method by a strict priority ladder and
// derives the full biomass/carbon/CO2e result:
//
//  1. Full allometric: DBH > 0 and height > 0.
//  2. Crown-estimated DBH: height > 0 and crown area > 0.
//  3. Height-only: height > 0.
//  4. Canopy-only: crown area > 0.
//
// The first applicable branch is used; no further fallback is attempted.
// Returns ErrInsufficientMeasurements when none apply.
func (e *Estimator) Estimate(m Measurement) (*Estimate, error) {
	species, hasSpecies := LookupSpecies(m.SpeciesCode)

	density := DefaultWoodDensity
	coeffA := DefaultAllometricA
	coeffB := DefaultAllometricB
	speciesUnc := DefaultSpeciesUncertaintyPct
	if hasSpecies {
		density = species.WoodDensity
		coeffA = species.AllometricA
		coeffB = species.AllometricB
		speciesUnc = species.UncertaintyPct
	}

	height := deref(m.HeightM)
	dbh := deref(m.DBHCm)
	crownArea := deref(m.CrownAreaM2)

	var (
		method Method
		rawKg  float64
	)
	switch {
	case dbh > 0 && height > 0:
		method = MethodAllometric
		rawKg = allometricKg(coeffA, coeffB, density, dbh, height)
	case height > 0 && crownArea > 0:
		method = MethodCrownDBH
		crownDiameter := 2 * math.Sqrt(crownArea/math.Pi)
		estimatedDBH := crownDiameter * CrownDiameterToDBHRatio
		rawKg = allometricKg(coeffA, coeffB, density, estimatedDBH, height)
	case height > 0:
		method = MethodHeightOnly
		rawKg = math.Pow(height, HeightOnlyExponent) * density * HeightOnlyCoefficient
	case crownArea > 0:
		method = MethodCanopyOnly
		rawKg = crownArea * density * CanopyOnlyCoefficient
	default:
		return nil, ErrInsufficientMeasurements
	}

	biomassKg := roundTo(math.Max(rawKg, MinBiomassKg), 2)
	carbonKg := roundTo(biomassKg*CarbonFraction, 2)
	co2eKg := roundTo(carbonKg*CO2ToCarbonRatio, 2)

	uncertainty := method.baseUncertainty(hasSpecies)
	if hasSpecies {
		uncertainty = math.Sqrt(uncertainty*uncertainty + speciesUnc*speciesUnc)
	}

	confidence := methodConfidence(method, hasSpecies, speciesUnc)

	est := &Estimate{
		BiomassKg:      biomassKg,
		CarbonKg:       carbonKg,
		CO2eKg:         co2eKg,
		UncertaintyPct: roundTo(uncertainty, 1),
		ConfidencePct:  roundTo(confidence, 1),
	}
	if hasSpecies {
		sp := species
		est.Species = &sp
		est.Method = method.Label(sp.Code)
	} else {
		est.Method = method.Label("")
	}
	return est, nil
}

// allometricKg evaluates AGB = a * (density * DBH_m^2 * height)^b with DBH in
// centimeters and height in meters.
func allometricKg(a, b, density, dbhCm, heightM float64) float64 {
	dbhM := dbhCm / 100.0
	return a * math.Pow(density*dbhM*dbhM*heightM, b)
}

// methodConfidence returns the confidence percentage for the method that
// fired. Only the full allometric method is sensitive to species data.
func methodConfidence(m Method, hasSpecies bool, speciesUnc float64) float64 {
	switch m {
	case MethodAllometric:
		if hasSpecies {
			return 100 - speciesUnc
		}
		return confidenceAllometricGeneric
	case MethodCrownDBH:
		return confidenceCrownDBH
	case MethodHeightOnly:
		return confidenceHeightOnly
	default:
		return confidenceCanopyOnly
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// roundTo rounds v to the given number of decimal places.
func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
