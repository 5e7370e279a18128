package biomass

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestEstimateMethodSelection(t *testing.T) {
	tests := []struct {
		name           string
		m              Measurement
		wantMethod     string
		wantConfidence float64
		wantUnc        float64
	}{
		{
			name:           "dbh and height select full allometric",
			m:              Measurement{HeightM: f(15), DBHCm: f(60)},
			wantMethod:     "allometric_generic",
			wantConfidence: 75,
			wantUnc:        20,
		},
		{
			name:           "all measurements still select full allometric",
			m:              Measurement{HeightM: f(15), DBHCm: f(60), CrownAreaM2: f(30)},
			wantMethod:     "allometric_generic",
			wantConfidence: 75,
			wantUnc:        20,
		},
		{
			name:           "height and crown select crown-estimated dbh",
			m:              Measurement{HeightM: f(6), CrownAreaM2: f(20)},
			wantMethod:     "crown_estimated_dbh",
			wantConfidence: 60,
			wantUnc:        25,
		},
		{
			name:           "height alone selects height-only",
			m:              Measurement{HeightM: f(5)},
			wantMethod:     "height_only",
			wantConfidence: 40,
			wantUnc:        35,
		},
		{
			name:           "crown alone selects canopy-only",
			m:              Measurement{CrownAreaM2: f(10)},
			wantMethod:     "canopy_only",
			wantConfidence: 35,
			wantUnc:        40,
		},
		{
			name:           "dbh without height falls through to canopy-only",
			m:              Measurement{DBHCm: f(40), CrownAreaM2: f(10)},
			wantMethod:     "canopy_only",
			wantConfidence: 35,
			wantUnc:        40,
		},
	}

	e := NewEstimator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est, err := e.Estimate(tt.m)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMethod, est.Method)
			assert.InDelta(t, tt.wantConfidence, est.ConfidencePct, 0.01)
			assert.InDelta(t, tt.wantUnc, est.UncertaintyPct, 0.01)
			assert.GreaterOrEqual(t, est.BiomassKg, MinBiomassKg)
		})
	}
}

func TestEstimateInsufficientMeasurements(t *testing.T) {
	e := NewEstimator()
	tests := []struct {
		name string
		m    Measurement
	}{
		{"all nil", Measurement{}},
		{"all zero", Measurement{HeightM: f(0), DBHCm: f(0), CrownAreaM2: f(0)}},
		{"dbh alone is not usable", Measurement{DBHCm: f(30)}},
		{"species code alone is not usable", Measurement{SpeciesCode: "tectona_grandis"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est, err := e.Estimate(tt.m)
			require.ErrorIs(t, err, ErrInsufficientMeasurements)
			assert.Nil(t, est)
		})
	}
}

func TestEstimateCarbonChain(t *testing.T) {
	// carbon and CO2e are always derived from the rounded biomass.
	e := NewEstimator()
	est, err := e.Estimate(Measurement{HeightM: f(5)})
	require.NoError(t, err)

	assert.InDelta(t, 83.85, est.BiomassKg, 0.001) // 5^2.5 × 0.6 × 2.5
	assert.InDelta(t, roundTo(est.BiomassKg*CarbonFraction, 2), est.CarbonKg, 1e-9)
	assert.InDelta(t, roundTo(est.CarbonKg*CO2ToCarbonRatio, 2), est.CO2eKg, 1e-9)
}

func TestEstimateClampsBiomass(t *testing.T) {
	e := NewEstimator()
	est, err := e.Estimate(Measurement{CrownAreaM2: f(0.001)})
	require.NoError(t, err)
	assert.Equal(t, MinBiomassKg, est.BiomassKg)
	assert.Equal(t, 0.05, est.CarbonKg)
	assert.Equal(t, 0.18, est.CO2eKg)
}

// Regression fixture from field data: a mid-size tree with unknown species.
// The raw allometric value falls below the floor, so the clamp fires.
func TestEstimateRegressionScenario(t *testing.T) {
	e := NewEstimator()
	est, err := e.Estimate(Measurement{HeightM: f(5.2), DBHCm: f(25.4)})
	require.NoError(t, err)

	raw := DefaultAllometricA * math.Pow(DefaultWoodDensity*0.254*0.254*5.2, DefaultAllometricB)
	require.Less(t, raw, MinBiomassKg)

	assert.Equal(t, MinBiomassKg, est.BiomassKg)
	assert.Equal(t, "allometric_generic", est.Method)
	assert.InDelta(t, 75, est.ConfidencePct, 0.01)
	assert.Nil(t, est.Species)
}

func TestEstimateWithSpecies(t *testing.T) {
	e := NewEstimator()
	est, err := e.Estimate(Measurement{HeightM: f(15), DBHCm: f(60), SpeciesCode: "tectona_grandis"})
	require.NoError(t, err)

	sp, ok := LookupSpecies("tectona_grandis")
	require.True(t, ok)

	want := roundTo(math.Max(sp.AllometricA*math.Pow(sp.WoodDensity*0.6*0.6*15, sp.AllometricB), MinBiomassKg), 2)
	assert.InDelta(t, want, est.BiomassKg, 1e-9)
	assert.Equal(t, "allometric_tectona_grandis", est.Method)
	assert.InDelta(t, 100-sp.UncertaintyPct, est.ConfidencePct, 0.01)

	// Base 15 combined with the species uncertainty by root-sum-of-squares.
	wantUnc := roundTo(math.Sqrt(15*15+sp.UncertaintyPct*sp.UncertaintyPct), 1)
	assert.InDelta(t, wantUnc, est.UncertaintyPct, 0.01)

	require.NotNil(t, est.Species)
	assert.Equal(t, "tectona_grandis", est.Species.Code)
}

func TestEstimateCrownFormula(t *testing.T) {
	e := NewEstimator()
	height, area := 6.0, 20.0
	est, err := e.Estimate(Measurement{HeightM: f(height), CrownAreaM2: f(area)})
	require.NoError(t, err)

	crownDiameter := 2 * math.Sqrt(area/math.Pi)
	estDBHCm := crownDiameter * CrownDiameterToDBHRatio
	dbhM := estDBHCm / 100
	want := roundTo(math.Max(DefaultAllometricA*math.Pow(DefaultWoodDensity*dbhM*dbhM*height, DefaultAllometricB), MinBiomassKg), 2)
	assert.InDelta(t, want, est.BiomassKg, 1e-9)
}

func TestEstimateIdempotent(t *testing.T) {
	e := NewEstimator()
	m := Measurement{HeightM: f(9.5), DBHCm: f(42), SpeciesCode: "azadirachta_indica"}

	first, err := e.Estimate(m)
	require.NoError(t, err)
	second, err := e.Estimate(m)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCanopyOnlyFormula(t *testing.T) {
	e := NewEstimator()
	est, err := e.Estimate(Measurement{CrownAreaM2: f(10)})
	require.NoError(t, err)
	assert.InDelta(t, 90.0, est.BiomassKg, 0.001) // 10 × 0.6 × 15
	assert.InDelta(t, 42.3, est.CarbonKg, 0.001)
	assert.InDelta(t, 155.24, est.CO2eKg, 0.001)
}
