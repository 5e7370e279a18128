// Package biomass provides above-ground biomass, carbon, and CO2-equivalent
// estimation for individual trees and whole plots using a fixed allometric
// model with graded fallback methods for incomplete field measurements.
package biomass

const (
	// CarbonFraction is the fraction of dry biomass that is carbon.
	// Source: IPCC default for woody biomass.
	CarbonFraction = 0.47

	// CO2ToCarbonRatio converts carbon mass to CO2-equivalent mass.
	// Molecular weight ratio CO2/C (44/12, rounded).
	CO2ToCarbonRatio = 3.67

	// DefaultWoodDensity is used when no species row matches, in kg/m^3
	// expressed as g/cm^3 for the allometric term.
	DefaultWoodDensity = 0.60

	// DefaultAllometricA is the generic allometric regression coefficient a.
	DefaultAllometricA = 0.0673

	// DefaultAllometricB is the generic allometric regression exponent b.
	DefaultAllometricB = 0.976

	// DefaultSpeciesUncertaintyPct applies when no species row matches.
	DefaultSpeciesUncertaintyPct = 25.0

	// MinBiomassKg is the floor applied to every computed biomass value.
	MinBiomassKg = 0.1

	// CrownDiameterToDBHRatio converts an estimated crown diameter in meters
	// to an estimated DBH in centimeters. Non-scientific placeholder kept for
	// behavioral compatibility with the original model.
	CrownDiameterToDBHRatio = 80.0

	// HeightOnlyCoefficient scales the height-only biomass formula.
	// Non-scientific placeholder kept for behavioral compatibility.
	HeightOnlyCoefficient = 2.5

	// HeightOnlyExponent is the height exponent in the height-only formula.
	HeightOnlyExponent = 2.5

	// CanopyOnlyCoefficient scales the canopy-only biomass formula.
	// Non-scientific placeholder kept for behavioral compatibility.
	CanopyOnlyCoefficient = 15.0

	// KgPerTon converts kilograms to metric tons.
	KgPerTon = 1000.0
)

// Per-method base uncertainty percentages, combined with the species
// uncertainty by root-sum-of-squares when a species row was resolved.
const (
	uncertaintyAllometricSpecies = 15.0
	uncertaintyAllometricGeneric = 20.0
	uncertaintyCrownDBH          = 25.0
	uncertaintyHeightOnly        = 35.0
	uncertaintyCanopyOnly        = 40.0
	uncertaintyUnknownMethod     = 30.0
)

// Fixed confidence percentages for the fallback methods. The full allometric
// method derives confidence from the species uncertainty instead.
const (
	confidenceAllometricGeneric = 75.0
	confidenceCrownDBH          = 60.0
	confidenceHeightOnly        = 40.0
	confidenceCanopyOnly        = 35.0
)
