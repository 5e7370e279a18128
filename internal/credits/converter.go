// Package credits converts aggregate biomass figures into tradable carbon
// credit units and money values. One credit equals one metric ton of CO2e.
package credits

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/carbonacre/carbonacre/internal/biomass"
	"github.com/carbonacre/carbonacre/internal/models"
	"github.com/carbonacre/carbonacre/internal/store"
)

// Breakdown is the pure arithmetic result of a credit calculation.
// Kilograms are rounded to 2 decimal places, tons and credits to 3.
type Breakdown struct {
	BiomassKg       float64 `json:"biomassKg"`
	CarbonStockKg   float64 `json:"carbonStockKg"`
	CarbonStockTons float64 `json:"carbonStockTons"`
	CO2eKg          float64 `json:"co2EquivalentKg"`
	CO2eTons        float64 `json:"co2EquivalentTons"`

	// Credits is numerically equal to CO2eTons: 1 credit = 1 tCO2e.
	Credits float64 `json:"creditsGenerated"`
}

// Result attaches the market price in effect and the resulting money values
// to a Breakdown. Immutable snapshot: a new price makes a new Result.
type Result struct {
	Breakdown

	USDPerCredit float64 `json:"usdPerCredit"`
	INRPerCredit float64 `json:"inrPerCredit"`
	ValueUSD     float64 `json:"valueUsd"`
	ValueINR     float64 `json:"valueInr"`

	// PriceSource names where the price came from ("market" or "default").
	PriceSource string `json:"priceSource"`
}

// PriceSource supplies the most recent market price row.
// Returns store.ErrNotFound when no price has ever been recorded.
type PriceSource interface {
	LatestMarketPrice(ctx context.Context) (*models.MarketPrice, error)
}

// PriceDefaults is the fallback price per credit when no market row exists.
// Injected rather than read from a package-level literal so tests and
// deployments can override it.
type PriceDefaults struct {
	USDPerCredit float64
	INRPerCredit float64
}

// DefaultPrices returns the stock fallback pricing.
func DefaultPrices() PriceDefaults {
	return PriceDefaults{USDPerCredit: 8.50, INRPerCredit: 700}
}

// ErrNegativeBiomass is returned for biomass figures below zero.
var ErrNegativeBiomass = errors.New("biomass must be >= 0")

// Calculate performs the pure biomass-to-credits arithmetic for biomassKg >= 0.
func Calculate(biomassKg float64) Breakdown {
	carbonKg := roundTo(biomassKg*biomass.CarbonFraction, 2)
	co2eKg := roundTo(carbonKg*biomass.CO2ToCarbonRatio, 2)
	co2eTons := roundTo(co2eKg/biomass.KgPerTon, 3)
	return Breakdown{
		BiomassKg:       roundTo(biomassKg, 2),
		CarbonStockKg:   carbonKg,
		CarbonStockTons: roundTo(carbonKg/biomass.KgPerTon, 3),
		CO2eKg:          co2eKg,
		CO2eTons:        co2eTons,
		Credits:         co2eTons,
	}
}

// Converter computes priced credit results against a market price source.
type Converter struct {
	prices   PriceSource
	defaults PriceDefaults
	logger   zerolog.Logger
}

// NewConverter creates a converter reading prices from the given source and
// falling back to the injected defaults.
func NewConverter(prices PriceSource, defaults PriceDefaults, logger zerolog.Logger) *Converter {
	return &Converter{prices: prices, defaults: defaults, logger: logger}
}

// CalculateWithPricing runs Calculate and attaches the most recent market
// price, or the defaults when none is recorded. Read-then-compute only; the
// caller decides whether to persist a snapshot.
func (c *Converter) CalculateWithPricing(ctx context.Context, biomassKg float64) (*Result, error) {
	if biomassKg < 0 {
		return nil, ErrNegativeBiomass
	}

	res := &Result{Breakdown: Calculate(biomassKg)}

	price, err := c.prices.LatestMarketPrice(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		res.USDPerCredit = c.defaults.USDPerCredit
		res.INRPerCredit = c.defaults.INRPerCredit
		res.PriceSource = "default"
		c.logger.Debug().Msg("No market price recorded, using default pricing")
	case err != nil:
		return nil, fmt.Errorf("latest market price: %w", err)
	default:
		res.USDPerCredit = price.USDPerCredit
		res.INRPerCredit = price.INRPerCredit
		res.PriceSource = "market"
	}

	res.ValueUSD = roundTo(res.Credits*res.USDPerCredit, 2)
	res.ValueINR = roundTo(res.Credits*res.INRPerCredit, 2)
	return res, nil
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
