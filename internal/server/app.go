// Package server exposes the CarbonAcre pipeline over HTTP.
package server

import (
	"github.com/rs/zerolog"

	"github.com/carbonacre/carbonacre/internal/biomass"
	"github.com/carbonacre/carbonacre/internal/credits"
	"github.com/carbonacre/carbonacre/internal/ledger"
	"github.com/carbonacre/carbonacre/internal/mrv"
	"github.com/carbonacre/carbonacre/internal/store"
)

// Config holds HTTP-layer settings.
type Config struct {
	JWTSecret string

	// AllowedOrigins configures CORS for browser clients.
	AllowedOrigins []string

	// AutoAnchor anchors every exported package immediately.
	AutoAnchor bool
}

// App wires the pipeline components behind the HTTP handlers.
type App struct {
	cfg        Config
	logger     zerolog.Logger
	store      store.Store
	estimator  *biomass.Estimator
	aggregator *biomass.Aggregator
	converter  *credits.Converter
	builder    *mrv.Builder
	verifier   *mrv.Verifier
	anchor     ledger.Anchor
}

// New assembles the application.
func New(cfg Config, st store.Store, builder *mrv.Builder, anchor ledger.Anchor, logger zerolog.Logger) *App {
	return &App{
		cfg:        cfg,
		logger:     logger,
		store:      st,
		estimator:  biomass.NewEstimator(),
		aggregator: biomass.NewAggregator(st, logger),
		converter:  credits.NewConverter(st, credits.DefaultPrices(), logger),
		builder:    builder,
		verifier:   mrv.NewVerifier(st, logger),
		anchor:     anchor,
	}
}
