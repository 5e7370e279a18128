package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MarketPrice is one carbon-credit market price observation. The converter
// always reads the most recent row by date.
type MarketPrice struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"    json:"id"`
	USDPerCredit float64            `bson:"usdPerCredit"     json:"usdPerCredit"`
	INRPerCredit float64            `bson:"inrPerCredit"     json:"inrPerCredit"`
	Date         time.Time          `bson:"date"             json:"date"`
	Source       string             `bson:"source,omitempty" json:"source,omitempty"`
}

// CreditResult is a persisted snapshot of a carbon-credit calculation for a
// user and plot. A new market price produces a new snapshot, never a mutation.
type CreditResult struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"userId"        json:"userId"`
	PlotID primitive.ObjectID `bson:"plotId"        json:"plotId"`

	BiomassKg       float64 `bson:"biomassKg"       json:"biomassKg"`
	CarbonStockKg   float64 `bson:"carbonStockKg"   json:"carbonStockKg"`
	CarbonStockTons float64 `bson:"carbonStockTons" json:"carbonStockTons"`
	CO2eKg          float64 `bson:"co2eKg"          json:"co2EquivalentKg"`
	CO2eTons        float64 `bson:"co2eTons"        json:"co2EquivalentTons"`
	Credits         float64 `bson:"credits"         json:"creditsGenerated"`

	USDPerCredit float64 `bson:"usdPerCredit" json:"usdPerCredit"`
	INRPerCredit float64 `bson:"inrPerCredit" json:"inrPerCredit"`
	ValueUSD     float64 `bson:"valueUsd"     json:"valueUsd"`
	ValueINR     float64 `bson:"valueInr"     json:"valueInr"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
