// Package models defines the persisted document types shared by the store
// and HTTP layers.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Plot is a registered land plot with its boundary and farmer-provided
// metadata.
type Plot struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID     primitive.ObjectID `bson:"ownerId"       json:"ownerId"`
	Name        string             `bson:"name"          json:"name"`
	AgroEcozone string             `bson:"agroEcozone,omitempty" json:"agroEcozone,omitempty"`

	// Boundary is a GeoJSON Polygon/MultiPolygon.
	Boundary map[string]any `bson:"boundary" json:"boundaryGeojson"`

	AreaHa    *float64  `bson:"areaHa,omitempty" json:"areaHa,omitempty"`
	Notes     string    `bson:"notes,omitempty"  json:"notes,omitempty"`
	CreatedAt time.Time `bson:"createdAt"        json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"        json:"updatedAt"`
}

// Tree is one tree's raw measurement record within a plot. Height, DBH, and
// crown area are independently optional; corrections overwrite in place, but
// finalized MRV packages keep a point-in-time copy on disk.
type Tree struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlotID      primitive.ObjectID `bson:"plotId"        json:"plotId"`
	SpeciesCode string             `bson:"speciesCode,omitempty" json:"speciesCode,omitempty"`
	HeightM     *float64           `bson:"heightM,omitempty"     json:"heightM,omitempty"`
	DBHCm       *float64           `bson:"dbhCm,omitempty"       json:"dbhCm,omitempty"`
	CrownAreaM2 *float64           `bson:"crownAreaM2,omitempty" json:"crownAreaM2,omitempty"`
	Health      string             `bson:"health,omitempty"      json:"health,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"             json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"             json:"updatedAt"`
}
