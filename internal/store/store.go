// Package store is the persistence collaborator for the MRV pipeline and the
// HTTP layer. The pipeline treats it as opaque: a Mongo-backed implementation
// serves production, an in-memory one serves tests.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/carbonacre/carbonacre/internal/biomass"
	"github.com/carbonacre/carbonacre/internal/models"
)

// ErrNotFound is returned when a referenced document does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique constraint is violated.
var ErrDuplicate = errors.New("duplicate key")

// Store is the full persistence surface.
type Store interface {
	// Plots.
	InsertPlot(ctx context.Context, plot *models.Plot) error
	GetPlot(ctx context.Context, id primitive.ObjectID) (*models.Plot, error)
	ListPlots(ctx context.Context, ownerID primitive.ObjectID) ([]models.Plot, error)
	UpdatePlot(ctx context.Context, plot *models.Plot) error
	DeletePlot(ctx context.Context, id primitive.ObjectID) error

	// Trees.
	InsertTree(ctx context.Context, tree *models.Tree) error
	GetTree(ctx context.Context, id primitive.ObjectID) (*models.Tree, error)
	ListTrees(ctx context.Context, plotID primitive.ObjectID) ([]models.Tree, error)
	UpdateTree(ctx context.Context, tree *models.Tree) error
	DeleteTree(ctx context.Context, id primitive.ObjectID) error

	// Estimates, keyed by tree id with upsert semantics.
	SaveEstimate(ctx context.Context, treeID primitive.ObjectID, est *biomass.Estimate) error
	GetEstimate(ctx context.Context, treeID primitive.ObjectID) (*biomass.Estimate, error)

	// Market prices.
	InsertMarketPrice(ctx context.Context, price *models.MarketPrice) error
	LatestMarketPrice(ctx context.Context) (*models.MarketPrice, error)

	// Credit-result snapshots.
	InsertCreditResult(ctx context.Context, result *models.CreditResult) error

	// MRV packages.
	InsertPackage(ctx context.Context, pkg *models.MRVPackage) error
	GetPackage(ctx context.Context, id string) (*models.MRVPackage, error)
	SetPackageAnchor(ctx context.Context, id, txID string) error

	// Users.
	InsertUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}
