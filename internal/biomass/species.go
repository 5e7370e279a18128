package biomass

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/species.yaml
var speciesYAML []byte

// Species is one row of the allometric reference table.
type Species struct {
	// Code is the lookup key, lowercase snake case.
	Code string `yaml:"code" json:"code"`

	// Name is the common or botanical display name.
	Name string `yaml:"name" json:"name"`

	// WoodDensity is the wood density in g/cm^3.
	WoodDensity float64 `yaml:"wood_density" json:"woodDensity"`

	// AllometricA is the regression coefficient a.
	AllometricA float64 `yaml:"allometric_a" json:"allometricA"`

	// AllometricB is the regression exponent b.
	AllometricB float64 `yaml:"allometric_b" json:"allometricB"`

	// UncertaintyPct is the species-level uncertainty percentage.
	UncertaintyPct float64 `yaml:"uncertainty_pct" json:"uncertaintyPct"`

	// Source is the citation for the coefficients.
	Source string `yaml:"source" json:"source"`
}

var (
	speciesTable map[string]Species
	speciesOnce  sync.Once
	speciesErr   error
)

// loadSpeciesTable parses the embedded reference table exactly once.
func loadSpeciesTable() {
	speciesOnce.Do(func() {
		var doc struct {
			Species []Species `yaml:"species"`
		}
		if err := yaml.Unmarshal(speciesYAML, &doc); err != nil {
			speciesErr = fmt.Errorf("parse species table: %w", err)
			return
		}
		speciesTable = make(map[string]Species, len(doc.Species))
		for _, sp := range doc.Species {
			speciesTable[strings.ToLower(sp.Code)] = sp
		}
	})
}

// LookupSpecies returns the reference row for the given species code.
// Returns (row, true) on a match and (zero, false) otherwise; an absent code
// is not an error, callers substitute the generic defaults.
func LookupSpecies(code string) (Species, bool) {
	loadSpeciesTable()
	if speciesErr != nil || code == "" {
		return Species{}, false
	}
	sp, ok := speciesTable[strings.ToLower(strings.TrimSpace(code))]
	return sp, ok
}

// SpeciesCount returns the number of rows in the embedded reference table.
func SpeciesCount() int {
	loadSpeciesTable()
	return len(speciesTable)
}
