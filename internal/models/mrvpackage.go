package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MRVPackage is the persisted record of one exported, hash-verifiable
// artifact bundle. The artifact folder itself is write-once; re-exports
// create new records with new folders.
type MRVPackage struct {
	// ID is a generated identifier of the form "mrv_<uuid>".
	ID string `bson:"_id" json:"pkgId"`

	PlotID        primitive.ObjectID `bson:"plotId"        json:"plotId"`
	SchemaVersion string             `bson:"schemaVersion" json:"schemaVersion"`

	// ArtifactsPath is the package folder on the artifact storage root.
	ArtifactsPath string `bson:"artifactsPath" json:"artifactsUri"`

	// TopHash is the aggregate SHA-256 over the per-file digests.
	TopHash string `bson:"topHash" json:"hash"`

	// LedgerTxID is the opaque anchor transaction id, empty until anchored.
	LedgerTxID string `bson:"ledgerTxId,omitempty" json:"ledgerTxId,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// User is an account that owns plots and credit-result snapshots.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username"      json:"username"`
	Email        string             `bson:"email"         json:"email"`
	PasswordHash string             `bson:"passwordHash"  json:"-"`
	CreatedAt    time.Time          `bson:"createdAt"     json:"createdAt"`
}
